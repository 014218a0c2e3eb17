// README: Assignment service orchestrates station/rider assignment and bulk actions.
package assignment

import (
	"context"
	"log"

	"gasline/internal/config"
	"gasline/internal/modules/order"
	"gasline/internal/types"
)

// OrderEngine is the slice of the order service the assignment flow drives.
type OrderEngine interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	AssignStation(ctx context.Context, cmd order.AssignStationCommand) (bool, error)
	AssignRider(ctx context.Context, cmd order.AssignRiderCommand) error
	Transition(ctx context.Context, cmd order.TransitionCommand) error
}

// RiderPool hands out available riders per station for auto-assign.
type RiderPool interface {
	PopAvailable(ctx context.Context, stationID types.ID) (types.ID, bool, error)
	Release(ctx context.Context, riderID types.ID) error
}

type Service struct {
	engine OrderEngine
	pool   RiderPool
	cfg    config.AssignmentConfig
}

func NewService(engine OrderEngine, pool RiderPool, cfg config.AssignmentConfig) *Service {
	return &Service{engine: engine, pool: pool, cfg: cfg}
}

type StationResult struct {
	LowStockWarning bool `json:"low_stock_warning"`
	AutoAssigned    bool `json:"auto_assigned"`
}

// AssignStation assigns the station slot and, when enabled, immediately
// tries auto-assign. Auto-assign failures are silent: the order stays
// awaiting manual assignment.
func (s *Service) AssignStation(ctx context.Context, orderID, stationID types.ID, actor order.Actor, actorID types.ID) (StationResult, error) {
	lowStock, err := s.engine.AssignStation(ctx, order.AssignStationCommand{
		OrderID:   orderID,
		StationID: stationID,
		Actor:     actor,
	})
	if err != nil {
		return StationResult{}, err
	}
	res := StationResult{LowStockWarning: lowStock}
	if s.cfg.AutoAssign {
		res.AutoAssigned = s.autoAssign(ctx, orderID, stationID, actor, actorID)
	}
	return res, nil
}

// AssignRider is the manual path; preconditions are enforced by the order
// engine (station set, rider available, actor authorized).
func (s *Service) AssignRider(ctx context.Context, orderID, riderID types.ID, actor order.Actor, notes string) error {
	return s.engine.AssignRider(ctx, order.AssignRiderCommand{
		OrderID: orderID,
		RiderID: riderID,
		Actor:   actor,
		Notes:   notes,
	})
}

// autoAssign confirms a pending order and hands it to the first available
// rider at the station. Every failure path is a silent no-op by design
// except returning the popped rider to the pool.
func (s *Service) autoAssign(ctx context.Context, orderID, stationID types.ID, actor order.Actor, actorID types.ID) bool {
	o, err := s.engine.Get(ctx, orderID)
	if err != nil {
		return false
	}
	if o.Status == order.StatusPending {
		err := s.engine.Transition(ctx, order.TransitionCommand{
			OrderID: orderID,
			To:      order.StatusConfirmed,
			Actor:   actor,
			ActorID: actorID,
			Notes:   "confirmed on station assignment",
		})
		if err != nil {
			return false
		}
	}
	riderID, ok, err := s.pool.PopAvailable(ctx, stationID)
	if err != nil || !ok {
		return false
	}
	err = s.engine.AssignRider(ctx, order.AssignRiderCommand{
		OrderID: orderID,
		RiderID: riderID,
		Actor:   order.ActorSystem,
		Notes:   "auto-assigned",
	})
	if err != nil {
		// Requeue the rider we popped; the order waits for manual assignment.
		if rerr := s.pool.Release(ctx, riderID); rerr != nil {
			log.Printf("auto-assign: requeue rider %s: %v", riderID, rerr)
		}
		return false
	}
	return true
}

// ItemResult reports one order's outcome within a bulk action.
type ItemResult struct {
	OrderID types.ID `json:"order_id"`
	OK      bool     `json:"ok"`
	Warning bool     `json:"warning,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// BulkAssignStation applies the single-order preconditions independently per
// order; one failure never rolls back the others.
func (s *Service) BulkAssignStation(ctx context.Context, orderIDs []types.ID, stationID types.ID, actor order.Actor, actorID types.ID) []ItemResult {
	out := make([]ItemResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		res, err := s.AssignStation(ctx, id, stationID, actor, actorID)
		item := ItemResult{OrderID: id, OK: err == nil, Warning: res.LowStockWarning}
		if err != nil {
			item.Error = err.Error()
		}
		out = append(out, item)
	}
	return out
}

// BulkTransition drives a set of orders to the same status, best-effort.
func (s *Service) BulkTransition(ctx context.Context, orderIDs []types.ID, to order.Status, actor order.Actor, actorID types.ID, notes string) []ItemResult {
	out := make([]ItemResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		err := s.engine.Transition(ctx, order.TransitionCommand{
			OrderID: id,
			To:      to,
			Actor:   actor,
			ActorID: actorID,
			Notes:   notes,
		})
		item := ItemResult{OrderID: id, OK: err == nil}
		if err != nil {
			item.Error = err.Error()
		}
		out = append(out, item)
	}
	return out
}

func (s *Service) BulkCancel(ctx context.Context, orderIDs []types.ID, actor order.Actor, actorID types.ID, reason string) []ItemResult {
	return s.BulkTransition(ctx, orderIDs, order.StatusCancelled, actor, actorID, reason)
}
