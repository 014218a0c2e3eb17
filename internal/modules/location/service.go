// README: Location service handles high-frequency updates with snapshot flushing.
package location

import (
	"context"
	"sync"
	"time"

	"gasline/internal/types"
)

// snapshotInterval bounds how often a rider's position is persisted to the
// snapshot table; the live position always goes to Redis.
const snapshotInterval = 30 * time.Second

type Service struct {
	store *Store

	mu        sync.Mutex
	lastFlush map[types.ID]time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, lastFlush: make(map[types.ID]time.Time)}
}

func (s *Service) Update(ctx context.Context, u Update) error {
	if err := s.store.SetGeo(ctx, u.RiderID, u.Position); err != nil {
		return err
	}
	if s.shouldFlush(u.RiderID) {
		return s.store.AppendSnapshot(ctx, Snapshot{
			RiderID:    u.RiderID,
			Position:   u.Position,
			RecordedAt: time.Now(),
		})
	}
	return nil
}

func (s *Service) Position(ctx context.Context, id types.ID) (types.Point, bool, error) {
	return s.store.Position(ctx, id)
}

func (s *Service) shouldFlush(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if last, ok := s.lastFlush[id]; ok && now.Sub(last) < snapshotInterval {
		return false
	}
	s.lastFlush[id] = now
	return true
}
