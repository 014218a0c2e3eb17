// README: Earnings service; payout creation on delivery and period summaries.
package earnings

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"gasline/internal/types"
)

var (
	ErrNotFound      = errors.New("earning not found")
	ErrInvalidStatus = errors.New("earning status may only move forward")
)

type Repository interface {
	// Create must be idempotent per order: a second insert for the same
	// order is a no-op (created=false).
	Create(ctx context.Context, e *Earning) (created bool, err error)
	ListByRider(ctx context.Context, riderID types.ID, since *time.Time) ([]Earning, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
}

type Service struct {
	repo Repository
	// commissionRate is policy, injected from config; never a literal at
	// call sites.
	commissionRate float64
	nowFunc        func() time.Time
}

func NewService(repo Repository, commissionRate float64) *Service {
	return &Service{repo: repo, commissionRate: commissionRate, nowFunc: time.Now}
}

// RecordDelivery implements order.EarningsRecorder. Exactly one Earning is
// created per order reaching DELIVERED; replays are swallowed by the store's
// per-order idempotence.
func (s *Service) RecordDelivery(ctx context.Context, orderID, riderID types.ID, baseFee int64) error {
	commission := Commission(baseFee, s.commissionRate)
	e := &Earning{
		ID:          types.ID(uuid.NewString()),
		OrderID:     orderID,
		RiderID:     riderID,
		BaseFee:     baseFee,
		Commission:  commission,
		NetEarnings: baseFee - commission,
		Status:      StatusPending,
		CreatedAt:   s.nowFunc(),
	}
	_, err := s.repo.Create(ctx, e)
	return err
}

// Commission rounds baseFee*rate to the nearest unit.
func Commission(baseFee int64, rate float64) int64 {
	return int64(math.Round(float64(baseFee) * rate))
}

func (s *Service) ListByRider(ctx context.Context, riderID types.ID, period Period) ([]Earning, error) {
	return s.repo.ListByRider(ctx, riderID, s.periodStart(period))
}

func (s *Service) SummaryByRider(ctx context.Context, riderID types.ID, period Period) (Summary, []Earning, error) {
	records, err := s.ListByRider(ctx, riderID, period)
	if err != nil {
		return Summary{}, nil, err
	}
	return Summarize(records), records, nil
}

// Progress advances an earning's status one step forward; backward or
// skipping moves are rejected.
func (s *Service) Progress(ctx context.Context, id types.ID, from, to Status) error {
	if !CanProgress(from, to) {
		return ErrInvalidStatus
	}
	ok, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) periodStart(p Period) *time.Time {
	now := s.nowFunc()
	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	default:
		return nil
	}
	return &start
}
