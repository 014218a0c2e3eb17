// README: Pure reducer merging server-pushed order events into client state.
package reconcile

import (
	"encoding/json"
	"time"

	"gasline/internal/types"
)

// Event mirrors the push envelope {type, order|data} as received by clients.
type Event struct {
	Type  string          `json:"type"`
	Order *OrderPatch     `json:"order,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	EventOrderCreated     = "ORDER_CREATED"
	EventOrderUpdated     = "ORDER_UPDATED"
	EventStatusChanged    = "ORDER_STATUS_CHANGED"
	EventRiderAssigned    = "RIDER_ASSIGNED"
	EventInventoryUpdated = "inventory_updated"
)

// Order is the locally held client view of an order. InFlight is a
// local-only UI affordance and must survive reconciliation.
type Order struct {
	ID              types.ID   `json:"id"`
	OrderNumber     string     `json:"order_number"`
	Status          string     `json:"status"`
	StationID       *string    `json:"station_id,omitempty"`
	RiderID         *string    `json:"rider_id,omitempty"`
	PaymentStatus   string     `json:"payment_status"`
	GasPrice        int64      `json:"gas_price"`
	DeliveryFee     int64      `json:"delivery_fee"`
	Discount        int64      `json:"discount"`
	Quantity        int        `json:"quantity"`
	TotalAmount     int64      `json:"total_amount"`
	DeliveryAddress string     `json:"delivery_address"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`

	InFlight bool `json:"-"`
}

// OrderPatch is a full or partial order snapshot; only non-nil fields are
// applied, so local fields absent from the payload are preserved.
type OrderPatch struct {
	ID              types.ID   `json:"id"`
	OrderNumber     *string    `json:"order_number,omitempty"`
	Status          *string    `json:"status,omitempty"`
	StationID       *string    `json:"station_id,omitempty"`
	RiderID         *string    `json:"rider_id,omitempty"`
	PaymentStatus   *string    `json:"payment_status,omitempty"`
	GasPrice        *int64     `json:"gas_price,omitempty"`
	DeliveryFee     *int64     `json:"delivery_fee,omitempty"`
	Discount        *int64     `json:"discount,omitempty"`
	Quantity        *int       `json:"quantity,omitempty"`
	TotalAmount     *int64     `json:"total_amount,omitempty"`
	DeliveryAddress *string    `json:"delivery_address,omitempty"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Collection is the client-held order set keyed by id.
type Collection map[types.ID]Order

// Apply folds one push event into the collection and returns a new
// collection; the input is never mutated.
//
// Semantics per the sync contract:
//   - ORDER_CREATED inserts only when the id is absent (idempotent against
//     duplicate delivery).
//   - Update events shallow-merge only the fields present in the payload;
//     the local order object is never blindly replaced.
//   - Status applies by arrival order (last-write-wins), not by timestamp;
//     out-of-order delivery is tolerated, not corrected.
func Apply(col Collection, ev Event) Collection {
	if ev.Order == nil || ev.Order.ID == "" {
		return col
	}
	next := make(Collection, len(col)+1)
	for k, v := range col {
		next[k] = v
	}

	patch := ev.Order
	existing, ok := next[patch.ID]

	if ev.Type == EventOrderCreated {
		if ok {
			return col
		}
		next[patch.ID] = merge(Order{ID: patch.ID}, patch)
		return next
	}

	if !ok {
		// Update arrived before its create; adopt the snapshot so the
		// later create is a no-op.
		existing = Order{ID: patch.ID}
	}
	next[patch.ID] = merge(existing, patch)
	return next
}

func merge(o Order, p *OrderPatch) Order {
	if p.OrderNumber != nil {
		o.OrderNumber = *p.OrderNumber
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.StationID != nil {
		o.StationID = p.StationID
	}
	if p.RiderID != nil {
		o.RiderID = p.RiderID
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.GasPrice != nil {
		o.GasPrice = *p.GasPrice
	}
	if p.DeliveryFee != nil {
		o.DeliveryFee = *p.DeliveryFee
	}
	if p.Discount != nil {
		o.Discount = *p.Discount
	}
	if p.Quantity != nil {
		o.Quantity = *p.Quantity
	}
	if p.TotalAmount != nil {
		o.TotalAmount = *p.TotalAmount
	}
	if p.DeliveryAddress != nil {
		o.DeliveryAddress = *p.DeliveryAddress
	}
	if p.ScheduledTime != nil {
		o.ScheduledTime = p.ScheduledTime
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
	return o
}
