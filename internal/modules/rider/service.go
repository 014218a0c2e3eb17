// README: Rider service; availability lifecycle driven by the order machine.
package rider

import (
	"context"
	"errors"

	"gasline/internal/types"
)

var ErrNotFound = errors.New("rider not found")

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Rider, error)
	SetOnline(ctx context.Context, id types.ID, online bool) error
	SetOnDelivery(ctx context.Context, id types.ID, busy bool) error
	IncrementDeliveries(ctx context.Context, id types.ID) error
	JoinPool(ctx context.Context, stationID, riderID types.ID) error
	LeavePool(ctx context.Context, stationID, riderID types.ID) error
	PoolMembers(ctx context.Context, stationID types.ID) ([]types.ID, error)
	PopPool(ctx context.Context, stationID types.ID) (types.ID, bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Rider, error) {
	return s.repo.Get(ctx, id)
}

// SetOnline is the rider's self-toggle; it keeps the station availability
// pool in sync with derived availability.
func (s *Service) SetOnline(ctx context.Context, id types.ID, online bool) error {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetOnline(ctx, id, online); err != nil {
		return err
	}
	if r.StationID == nil {
		return nil
	}
	if online && !r.OnDelivery {
		return s.repo.JoinPool(ctx, *r.StationID, id)
	}
	if !online {
		return s.repo.LeavePool(ctx, *r.StationID, id)
	}
	return nil
}

// Availability implements order.RiderRoster.
func (s *Service) Availability(ctx context.Context, riderID types.ID) (online, available bool, err error) {
	r, err := s.repo.Get(ctx, riderID)
	if err != nil {
		return false, false, err
	}
	return r.IsOnline, r.IsAvailable(), nil
}

func (s *Service) MarkBusy(ctx context.Context, riderID types.ID) error {
	r, err := s.repo.Get(ctx, riderID)
	if err != nil {
		return err
	}
	if err := s.repo.SetOnDelivery(ctx, riderID, true); err != nil {
		return err
	}
	if r.StationID != nil {
		return s.repo.LeavePool(ctx, *r.StationID, riderID)
	}
	return nil
}

func (s *Service) Release(ctx context.Context, riderID types.ID) error {
	r, err := s.repo.Get(ctx, riderID)
	if err != nil {
		return err
	}
	if err := s.repo.SetOnDelivery(ctx, riderID, false); err != nil {
		return err
	}
	if r.StationID != nil && r.IsOnline {
		return s.repo.JoinPool(ctx, *r.StationID, riderID)
	}
	return nil
}

// RecordDelivery bumps the monotonic delivery counter and frees the rider.
func (s *Service) RecordDelivery(ctx context.Context, riderID types.ID) error {
	if err := s.repo.IncrementDeliveries(ctx, riderID); err != nil {
		return err
	}
	return s.Release(ctx, riderID)
}

// AvailableAtStation lists riders a manager can pick from for manual
// assignment.
func (s *Service) AvailableAtStation(ctx context.Context, stationID types.ID) ([]*Rider, error) {
	ids, err := s.repo.PoolMembers(ctx, stationID)
	if err != nil {
		return nil, err
	}
	out := make([]*Rider, 0, len(ids))
	for _, id := range ids {
		r, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if r.IsAvailable() {
			out = append(out, r)
		}
	}
	return out, nil
}

// PopAvailable hands one available rider to auto-assign, or ok=false when
// the station pool is empty.
func (s *Service) PopAvailable(ctx context.Context, stationID types.ID) (types.ID, bool, error) {
	return s.repo.PopPool(ctx, stationID)
}
