// README: Assignment orchestration tests (auto-assign, requeue, bulk actions).
package assignment

import (
	"context"
	"testing"

	"gasline/internal/config"
	"gasline/internal/modules/order"
	"gasline/internal/types"
)

// fakeEngine models just enough of the order machine for orchestration tests:
// real transition rules, in-memory state.
type fakeEngine struct {
	orders         map[types.ID]*order.Order
	lowStock       bool
	assignRiderErr error
	transitions    []order.TransitionCommand
}

func newFakeEngine(orders ...*order.Order) *fakeEngine {
	e := &fakeEngine{orders: make(map[types.ID]*order.Order)}
	for _, o := range orders {
		e.orders[o.ID] = o
	}
	return e
}

func (e *fakeEngine) Get(_ context.Context, id types.ID) (*order.Order, error) {
	o, ok := e.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (e *fakeEngine) AssignStation(_ context.Context, cmd order.AssignStationCommand) (bool, error) {
	o, ok := e.orders[cmd.OrderID]
	if !ok {
		return false, order.ErrNotFound
	}
	if order.IsTerminal(o.Status) || o.RiderID != nil {
		return false, order.ErrInvalidState
	}
	sid := cmd.StationID
	o.StationID = &sid
	return e.lowStock, nil
}

func (e *fakeEngine) AssignRider(_ context.Context, cmd order.AssignRiderCommand) error {
	if e.assignRiderErr != nil {
		return e.assignRiderErr
	}
	o, ok := e.orders[cmd.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.StationID == nil {
		return order.ErrNoStation
	}
	if !order.CanTransition(o.Status, order.StatusRiderAssigned) {
		return order.ErrInvalidState
	}
	rid := cmd.RiderID
	o.RiderID = &rid
	o.Status = order.StatusRiderAssigned
	return nil
}

func (e *fakeEngine) Transition(_ context.Context, cmd order.TransitionCommand) error {
	o, ok := e.orders[cmd.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	if !order.CanTransition(o.Status, cmd.To) {
		return order.ErrInvalidState
	}
	if !order.ActorAllowed(o.Status, cmd.To, cmd.Actor) {
		return order.ErrForbidden
	}
	o.Status = cmd.To
	e.transitions = append(e.transitions, cmd)
	return nil
}

// fakePool hands out riders in insertion order per station.
type fakePool struct {
	riders   map[types.ID][]types.ID
	released []types.ID
}

func newFakePool() *fakePool {
	return &fakePool{riders: make(map[types.ID][]types.ID)}
}

func (p *fakePool) add(stationID types.ID, riderIDs ...types.ID) {
	p.riders[stationID] = append(p.riders[stationID], riderIDs...)
}

func (p *fakePool) PopAvailable(_ context.Context, stationID types.ID) (types.ID, bool, error) {
	q := p.riders[stationID]
	if len(q) == 0 {
		return "", false, nil
	}
	p.riders[stationID] = q[1:]
	return q[0], true, nil
}

func (p *fakePool) Release(_ context.Context, riderID types.ID) error {
	p.released = append(p.released, riderID)
	return nil
}

func pendingOrder(id types.ID) *order.Order {
	return &order.Order{ID: id, Status: order.StatusPending}
}

func autoCfg() config.AssignmentConfig {
	return config.AssignmentConfig{AutoAssign: true}
}

func TestAssignStationAutoAssigns(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(pendingOrder("o1"))
	pool := newFakePool()
	pool.add("st1", "r1")
	svc := NewService(engine, pool, autoCfg())

	res, err := svc.AssignStation(ctx, "o1", "st1", order.ActorManager, "m1")
	if err != nil {
		t.Fatalf("assign station: %v", err)
	}
	if !res.AutoAssigned {
		t.Fatal("expected auto-assignment")
	}

	o := engine.orders["o1"]
	if o.Status != order.StatusRiderAssigned {
		t.Fatalf("expected RIDER_ASSIGNED, got %s", o.Status)
	}
	if o.RiderID == nil || *o.RiderID != "r1" {
		t.Fatal("expected rider r1 assigned")
	}

	// The pending order was confirmed on the way, by the assigning actor.
	if len(engine.transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(engine.transitions))
	}
	if tr := engine.transitions[0]; tr.To != order.StatusConfirmed || tr.Actor != order.ActorManager {
		t.Fatalf("unexpected confirm transition: %+v", tr)
	}
}

func TestAssignStationNoRidersIsSilent(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(pendingOrder("o1"))
	svc := NewService(engine, newFakePool(), autoCfg())

	res, err := svc.AssignStation(ctx, "o1", "st1", order.ActorManager, "m1")
	if err != nil {
		t.Fatalf("assign station: %v", err)
	}
	if res.AutoAssigned {
		t.Fatal("expected no auto-assignment with an empty pool")
	}

	// The order still advanced to CONFIRMED and waits for manual assignment.
	if got := engine.orders["o1"].Status; got != order.StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got)
	}
}

func TestAssignStationAutoAssignDisabled(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(pendingOrder("o1"))
	pool := newFakePool()
	pool.add("st1", "r1")
	svc := NewService(engine, pool, config.AssignmentConfig{AutoAssign: false})

	res, err := svc.AssignStation(ctx, "o1", "st1", order.ActorManager, "m1")
	if err != nil {
		t.Fatalf("assign station: %v", err)
	}
	if res.AutoAssigned {
		t.Fatal("expected no auto-assignment when disabled")
	}
	if got := engine.orders["o1"].Status; got != order.StatusPending {
		t.Fatalf("expected order untouched at PENDING, got %s", got)
	}
	if len(pool.riders["st1"]) != 1 {
		t.Fatal("expected pool untouched")
	}
}

func TestAutoAssignRequeuesRiderOnFailure(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(pendingOrder("o1"))
	engine.assignRiderErr = order.ErrRiderUnavailable
	pool := newFakePool()
	pool.add("st1", "r1")
	svc := NewService(engine, pool, autoCfg())

	res, err := svc.AssignStation(ctx, "o1", "st1", order.ActorManager, "m1")
	if err != nil {
		t.Fatalf("assign station: %v", err)
	}
	if res.AutoAssigned {
		t.Fatal("expected auto-assignment to fail silently")
	}
	if len(pool.released) != 1 || pool.released[0] != "r1" {
		t.Fatalf("expected rider r1 requeued, got %v", pool.released)
	}
}

func TestAssignStationPropagatesLowStock(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(pendingOrder("o1"))
	engine.lowStock = true
	svc := NewService(engine, newFakePool(), config.AssignmentConfig{})

	res, err := svc.AssignStation(ctx, "o1", "st1", order.ActorAdmin, "a1")
	if err != nil {
		t.Fatalf("assign station: %v", err)
	}
	if !res.LowStockWarning {
		t.Fatal("expected low stock warning")
	}
}

func TestBulkAssignStationPerItemOutcomes(t *testing.T) {
	ctx := context.Background()
	delivered := &order.Order{ID: "o_done", Status: order.StatusDelivered}
	engine := newFakeEngine(pendingOrder("o1"), pendingOrder("o2"), delivered)
	svc := NewService(engine, newFakePool(), config.AssignmentConfig{})

	out := svc.BulkAssignStation(ctx, []types.ID{"o1", "o_done", "o2", "o_missing"}, "st1", order.ActorManager, "m1")
	if len(out) != 4 {
		t.Fatalf("expected 4 results, got %d", len(out))
	}

	byID := make(map[types.ID]ItemResult)
	for _, r := range out {
		byID[r.OrderID] = r
	}
	if !byID["o1"].OK || !byID["o2"].OK {
		t.Fatalf("expected o1 and o2 to succeed: %+v", out)
	}
	if byID["o_done"].OK {
		t.Fatal("expected delivered order to fail")
	}
	if byID["o_missing"].OK {
		t.Fatal("expected missing order to fail")
	}

	// Failures never roll back the successes.
	if engine.orders["o1"].StationID == nil || engine.orders["o2"].StationID == nil {
		t.Fatal("expected stations assigned on successful items")
	}
}

func TestBulkCancelSkipsDelivered(t *testing.T) {
	ctx := context.Background()
	delivered := &order.Order{ID: "o_done", Status: order.StatusDelivered}
	engine := newFakeEngine(pendingOrder("o1"), pendingOrder("o2"), delivered)
	svc := NewService(engine, newFakePool(), config.AssignmentConfig{})

	out := svc.BulkCancel(ctx, []types.ID{"o1", "o_done", "o2"}, order.ActorAdmin, "a1", "station outage")

	succeeded, failed := 0, 0
	for _, r := range out {
		if r.OK {
			succeeded++
		} else {
			failed++
		}
	}
	if succeeded != 2 || failed != 1 {
		t.Fatalf("expected 2 succeeded / 1 failed, got %d/%d", succeeded, failed)
	}
	if engine.orders["o1"].Status != order.StatusCancelled || engine.orders["o2"].Status != order.StatusCancelled {
		t.Fatal("expected pending orders cancelled")
	}
	if engine.orders["o_done"].Status != order.StatusDelivered {
		t.Fatal("expected delivered order untouched")
	}
}
