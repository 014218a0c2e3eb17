// README: Order service implements the state machine transitions and side effects.
package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"gasline/internal/types"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("order not found")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrConflict         = errors.New("order state conflict")
	ErrForbidden        = errors.New("actor not permitted")
	ErrNoStation        = errors.New("order has no station assigned")
	ErrRiderUnavailable = errors.New("rider is not available")
	ErrInactiveStation  = errors.New("station is inactive")
	ErrDeliveryCode     = errors.New("delivery code mismatch")
	ErrProofFinal       = errors.New("delivery proof is write-once")
	ErrNotDelivered     = errors.New("order is not delivered")
)

// Repository abstracts order persistence. UpdateStatus is a compare-and-swap
// on (status, status_version) so concurrent transitions lose cleanly.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	AssignStation(ctx context.Context, id, stationID types.ID, version int) (bool, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, riderID *types.ID) (bool, error)
	AppendHistory(ctx context.Context, e *HistoryEntry) error
	History(ctx context.Context, orderID types.ID) ([]HistoryEntry, error)
	HasTransitionKey(ctx context.Context, orderID types.ID, key string) (bool, error)
	SetProof(ctx context.Context, id types.ID, p Proof) (bool, error)
}

// StationGate answers the assignment preconditions for a station.
type StationGate interface {
	StationCheck(ctx context.Context, stationID types.ID, gasType GasType, cylinderSize string, quantity int) (StationCheck, error)
}

type StationCheck struct {
	Active  bool
	InStock bool
}

// RiderRoster exposes the availability lifecycle the order machine drives.
type RiderRoster interface {
	Availability(ctx context.Context, riderID types.ID) (online, available bool, err error)
	MarkBusy(ctx context.Context, riderID types.ID) error
	Release(ctx context.Context, riderID types.ID) error
	RecordDelivery(ctx context.Context, riderID types.ID) error
}

// EarningsRecorder creates the payout record when an order is delivered.
type EarningsRecorder interface {
	RecordDelivery(ctx context.Context, orderID, riderID types.ID, baseFee int64) error
}

// Publisher fans an accepted mutation out to connected dashboards.
type Publisher interface {
	PublishOrder(eventType string, o *Order)
}

type Service struct {
	repo       Repository
	stations   StationGate
	roster     RiderRoster
	earnings   EarningsRecorder
	pub        Publisher
	codeDigits int
}

func NewService(repo Repository, stations StationGate, roster RiderRoster, earnings EarningsRecorder, pub Publisher, codeDigits int) *Service {
	if codeDigits < 4 {
		codeDigits = 4
	}
	return &Service{
		repo:       repo,
		stations:   stations,
		roster:     roster,
		earnings:   earnings,
		pub:        pub,
		codeDigits: codeDigits,
	}
}

type CreateCommand struct {
	CustomerID       types.ID
	GasType          GasType
	CylinderSize     string
	OrderType        OrderType
	Quantity         int
	GasPrice         int64
	DeliveryFee      int64
	Discount         int64
	PaymentMethod    string
	PaymentReference string
	PaymentStatus    PaymentStatus
	DeliveryAddress  string
	Destination      types.Point
	ScheduledTime    *time.Time
}

type AssignStationCommand struct {
	OrderID   types.ID
	StationID types.ID
	Actor     Actor
}

type AssignRiderCommand struct {
	OrderID types.ID
	RiderID types.ID
	Actor   Actor
	Notes   string
}

type TransitionCommand struct {
	OrderID        types.ID
	To             Status
	Actor          Actor
	ActorID        types.ID
	DeliveryCode   string
	Notes          string
	IdempotencyKey string
}

type Proof struct {
	ProofPhotoURL *string
	SignatureURL  *string
	Rating        *int
	Review        *string
}

type Filter struct {
	Status     Status
	StationID  types.ID
	CustomerID types.ID
	RiderID    types.ID
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerID == "" || cmd.DeliveryAddress == "" {
		return nil, ErrBadRequest
	}
	if cmd.Quantity <= 0 || cmd.Discount < 0 || cmd.GasPrice < 0 || cmd.DeliveryFee < 0 {
		return nil, ErrBadRequest
	}
	switch cmd.GasType {
	case GasLPG, GasCNG, GasNatural:
	default:
		return nil, ErrBadRequest
	}
	switch cmd.OrderType {
	case TypeRefill, TypeNewCylinder, TypeSwap:
	default:
		return nil, ErrBadRequest
	}

	now := time.Now()
	paymentStatus := cmd.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}
	o := &Order{
		ID:               types.ID(uuid.NewString()),
		OrderNumber:      newOrderNumber(now),
		CustomerID:       cmd.CustomerID,
		GasType:          cmd.GasType,
		CylinderSize:     cmd.CylinderSize,
		OrderType:        cmd.OrderType,
		Quantity:         cmd.Quantity,
		GasPrice:         cmd.GasPrice,
		DeliveryFee:      cmd.DeliveryFee,
		Discount:         cmd.Discount,
		TotalAmount:      Total(cmd.GasPrice, cmd.Quantity, cmd.DeliveryFee, cmd.Discount),
		PaymentMethod:    cmd.PaymentMethod,
		PaymentStatus:    paymentStatus,
		PaymentReference: cmd.PaymentReference,
		DeliveryAddress:  cmd.DeliveryAddress,
		Destination:      cmd.Destination,
		ScheduledTime:    cmd.ScheduledTime,
		Status:           StatusPending,
		StatusVersion:    0,
		DeliveryCode:     newDeliveryCode(s.codeDigits),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	_ = s.repo.AppendHistory(ctx, &HistoryEntry{
		OrderID:   o.ID,
		Status:    StatusPending,
		Notes:     "order created",
		CreatedAt: now,
	})
	if s.pub != nil {
		s.pub.PublishOrder(EventOrderCreated, o)
	}
	return o, nil
}

// AssignStation sets the station slot. Returns lowStock=true as a
// non-blocking warning when the station lacks stock for the order line;
// an inactive station blocks the assignment outright.
func (s *Service) AssignStation(ctx context.Context, cmd AssignStationCommand) (lowStock bool, err error) {
	if cmd.Actor != ActorManager && cmd.Actor != ActorAdmin {
		return false, ErrForbidden
	}
	o, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return false, err
	}
	if IsTerminal(o.Status) {
		return false, ErrInvalidState
	}
	if o.RiderID != nil {
		// Station is locked in once a rider is working from it.
		return false, ErrInvalidState
	}
	check, err := s.stations.StationCheck(ctx, cmd.StationID, o.GasType, o.CylinderSize, o.Quantity)
	if err != nil {
		return false, err
	}
	if !check.Active {
		return false, ErrInactiveStation
	}
	ok, err := s.repo.AssignStation(ctx, o.ID, cmd.StationID, o.StatusVersion)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrConflict
	}
	o.StationID = &cmd.StationID
	o.StatusVersion++
	if s.pub != nil {
		s.pub.PublishOrder(EventOrderUpdated, o)
	}
	return !check.InStock, nil
}

// AssignRider fills the rider slot and moves the order to RIDER_ASSIGNED.
// Preconditions: station already assigned, rider online and available at
// assignment time. Concurrent assigners lose with ErrConflict.
func (s *Service) AssignRider(ctx context.Context, cmd AssignRiderCommand) error {
	if cmd.Actor != ActorManager && cmd.Actor != ActorAdmin && cmd.Actor != ActorSystem {
		return ErrForbidden
	}
	o, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.StationID == nil {
		return ErrNoStation
	}
	if !CanTransition(o.Status, StatusRiderAssigned) {
		return ErrInvalidState
	}
	online, available, err := s.roster.Availability(ctx, cmd.RiderID)
	if err != nil {
		return err
	}
	if !online || !available {
		return ErrRiderUnavailable
	}
	ok, err := s.repo.UpdateStatus(ctx, o.ID, o.Status, StatusRiderAssigned, o.StatusVersion, &cmd.RiderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if err := s.roster.MarkBusy(ctx, cmd.RiderID); err != nil {
		return err
	}
	_ = s.repo.AppendHistory(ctx, &HistoryEntry{
		OrderID:   o.ID,
		Status:    StatusRiderAssigned,
		Notes:     cmd.Notes,
		CreatedAt: time.Now(),
	})
	o.Status = StatusRiderAssigned
	o.RiderID = &cmd.RiderID
	if s.pub != nil {
		s.pub.PublishOrder(EventRiderAssigned, o)
	}
	return nil
}

// Transition is the single authority for forward status changes and
// cancellation. Rider-slot assignment goes through AssignRider instead.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) error {
	if cmd.To == StatusRiderAssigned {
		return ErrBadRequest
	}
	o, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if cmd.IdempotencyKey != "" {
		seen, err := s.repo.HasTransitionKey(ctx, o.ID, cmd.IdempotencyKey)
		if err != nil {
			return err
		}
		if seen {
			// Replay of an already-applied transition.
			return nil
		}
	}
	if !CanTransition(o.Status, cmd.To) {
		return ErrInvalidState
	}
	if !ActorAllowed(o.Status, cmd.To, cmd.Actor) {
		return ErrForbidden
	}
	switch cmd.To {
	case StatusConfirmed:
		if o.StationID == nil {
			return ErrNoStation
		}
	case StatusPickedUp, StatusInTransit, StatusArrived, StatusDelivered:
		if o.RiderID == nil || *o.RiderID != cmd.ActorID {
			return ErrForbidden
		}
	}
	if cmd.To == StatusDelivered && cmd.DeliveryCode != o.DeliveryCode {
		// Wrong code: error out with zero mutation; status and history
		// stay byte-for-byte unchanged and the rider may retry.
		return ErrDeliveryCode
	}

	ok, err := s.repo.UpdateStatus(ctx, o.ID, o.Status, cmd.To, o.StatusVersion, o.RiderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	var key *string
	if cmd.IdempotencyKey != "" {
		key = &cmd.IdempotencyKey
	}
	_ = s.repo.AppendHistory(ctx, &HistoryEntry{
		OrderID:        o.ID,
		Status:         cmd.To,
		Notes:          cmd.Notes,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	})

	switch cmd.To {
	case StatusDelivered:
		if o.RiderID != nil {
			if s.earnings != nil {
				_ = s.earnings.RecordDelivery(ctx, o.ID, *o.RiderID, o.DeliveryFee)
			}
			_ = s.roster.RecordDelivery(ctx, *o.RiderID)
		}
	case StatusCancelled:
		if o.RiderID != nil {
			_ = s.roster.Release(ctx, *o.RiderID)
		}
	}

	o.Status = cmd.To
	if s.pub != nil {
		s.pub.PublishOrder(EventStatusChanged, o)
	}
	return nil
}

// SetProof attaches write-once delivery proof; only valid at/after DELIVERED.
func (s *Service) SetProof(ctx context.Context, id types.ID, p Proof) error {
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return ErrBadRequest
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != StatusDelivered {
		return ErrNotDelivered
	}
	ok, err := s.repo.SetProof(ctx, id, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProofFinal
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Order, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}

func (s *Service) History(ctx context.Context, id types.ID) ([]HistoryEntry, error) {
	return s.repo.History(ctx, id)
}

func newOrderNumber(t time.Time) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1_000_000))
	return fmt.Sprintf("GL-%s-%06d", t.Format("20060102"), n.Int64())
}

// newDeliveryCode issues the numeric secret revealed only to the customer.
func newDeliveryCode(digits int) string {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, _ := rand.Int(rand.Reader, max)
	return fmt.Sprintf("%0*d", digits, n.Int64())
}
