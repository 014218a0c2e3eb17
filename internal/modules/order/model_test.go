// README: State machine and actor authorization table tests.
package order

import "testing"

// TestCanTransition verifies the status transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPreparing, true},
		{StatusConfirmed, StatusRiderAssigned, true},
		{StatusPreparing, StatusRiderAssigned, true},
		{StatusRiderAssigned, StatusPickedUp, true},
		{StatusPickedUp, StatusInTransit, true},
		{StatusInTransit, StatusArrived, true},
		{StatusArrived, StatusDelivered, true},
		// shortcuts: transit and arrival markers may be skipped
		{StatusPickedUp, StatusArrived, true},
		{StatusPickedUp, StatusDelivered, true},
		{StatusInTransit, StatusDelivered, true},
		// cancel from every non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusRiderAssigned, StatusCancelled, true},
		{StatusPickedUp, StatusCancelled, true},
		{StatusInTransit, StatusCancelled, true},
		{StatusArrived, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		// invalid: skipping forward states
		{StatusPending, StatusRiderAssigned, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusPickedUp, false},
		{StatusRiderAssigned, StatusDelivered, false},
		// invalid: backward movement
		{StatusConfirmed, StatusPending, false},
		{StatusPickedUp, StatusRiderAssigned, false},
		{StatusDelivered, StatusArrived, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusRiderAssigned, StatusPickedUp, StatusInTransit, StatusArrived} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
}

func TestActorAllowed(t *testing.T) {
	cases := []struct {
		from, to Status
		actor    Actor
		want     bool
	}{
		// staff drive the preparation phase
		{StatusPending, StatusConfirmed, ActorManager, true},
		{StatusPending, StatusConfirmed, ActorAdmin, true},
		{StatusPending, StatusConfirmed, ActorRider, false},
		{StatusPending, StatusConfirmed, ActorCustomer, false},
		{StatusConfirmed, StatusPreparing, ActorManager, true},
		{StatusConfirmed, StatusPreparing, ActorCustomer, false},
		// rider assignment may also come from the system (auto-assign)
		{StatusConfirmed, StatusRiderAssigned, ActorSystem, true},
		{StatusPreparing, StatusRiderAssigned, ActorManager, true},
		{StatusPreparing, StatusRiderAssigned, ActorRider, false},
		// only the rider drives the delivery leg
		{StatusRiderAssigned, StatusPickedUp, ActorRider, true},
		{StatusRiderAssigned, StatusPickedUp, ActorManager, false},
		{StatusInTransit, StatusArrived, ActorRider, true},
		{StatusArrived, StatusDelivered, ActorRider, true},
		{StatusArrived, StatusDelivered, ActorAdmin, false},
		// customers may cancel only before the handoff to a rider
		{StatusPending, StatusCancelled, ActorCustomer, true},
		{StatusConfirmed, StatusCancelled, ActorCustomer, true},
		{StatusPreparing, StatusCancelled, ActorCustomer, true},
		{StatusRiderAssigned, StatusCancelled, ActorCustomer, false},
		{StatusPickedUp, StatusCancelled, ActorCustomer, false},
		{StatusArrived, StatusCancelled, ActorCustomer, false},
		// staff may cancel at any stage
		{StatusRiderAssigned, StatusCancelled, ActorManager, true},
		{StatusInTransit, StatusCancelled, ActorAdmin, true},
		// riders never cancel
		{StatusPickedUp, StatusCancelled, ActorRider, false},
	}
	for _, tc := range cases {
		got := ActorAllowed(tc.from, tc.to, tc.actor)
		if got != tc.want {
			t.Errorf("ActorAllowed(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.actor, got, tc.want)
		}
	}
}

func TestTotal(t *testing.T) {
	cases := []struct {
		gasPrice    int64
		quantity    int
		deliveryFee int64
		discount    int64
		want        int64
	}{
		{5000, 1, 1000, 0, 6000},
		{5000, 3, 1500, 500, 16000},
		{0, 2, 1000, 0, 1000},
		{2500, 4, 0, 10000, 0},
	}
	for _, tc := range cases {
		got := Total(tc.gasPrice, tc.quantity, tc.deliveryFee, tc.discount)
		if got != tc.want {
			t.Errorf("Total(%d, %d, %d, %d) = %d, want %d",
				tc.gasPrice, tc.quantity, tc.deliveryFee, tc.discount, got, tc.want)
		}
	}
}
