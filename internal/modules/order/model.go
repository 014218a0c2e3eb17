// README: Order aggregate, status machine, and actor authorization tables.
package order

import (
	"time"

	"gasline/internal/types"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusConfirmed     Status = "CONFIRMED"
	StatusPreparing     Status = "PREPARING"
	StatusRiderAssigned Status = "RIDER_ASSIGNED"
	StatusPickedUp      Status = "PICKED_UP"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusArrived       Status = "ARRIVED"
	StatusDelivered     Status = "DELIVERED"
	StatusCancelled     Status = "CANCELLED"
)

// Actor identifies who is requesting a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorRider    Actor = "rider"
	ActorManager  Actor = "manager"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"
)

type GasType string

const (
	GasLPG     GasType = "LPG"
	GasCNG     GasType = "CNG"
	GasNatural GasType = "Natural Gas"
)

type OrderType string

const (
	TypeRefill      OrderType = "refill"
	TypeNewCylinder OrderType = "new_cylinder"
	TypeSwap        OrderType = "swap"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID               types.ID      `json:"id"`
	OrderNumber      string        `json:"order_number"`
	CustomerID       types.ID      `json:"customer_id"`
	GasType          GasType       `json:"gas_type"`
	CylinderSize     string        `json:"cylinder_size"`
	OrderType        OrderType     `json:"order_type"`
	Quantity         int           `json:"quantity"`
	GasPrice         int64         `json:"gas_price"`
	DeliveryFee      int64         `json:"delivery_fee"`
	Discount         int64         `json:"discount"`
	TotalAmount      int64         `json:"total_amount"`
	PaymentMethod    string        `json:"payment_method"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	DeliveryAddress  string        `json:"delivery_address"`
	Destination      types.Point   `json:"destination"`
	ScheduledTime    *time.Time    `json:"scheduled_time,omitempty"`
	StationID        *types.ID     `json:"station_id,omitempty"`
	RiderID          *types.ID     `json:"rider_id,omitempty"`
	Status           Status        `json:"status"`
	StatusVersion    int           `json:"-"`
	// DeliveryCode is the customer-held secret; never serialized to
	// rider/manager/admin views.
	DeliveryCode  string     `json:"-"`
	ProofPhotoURL *string    `json:"proof_photo_url,omitempty"`
	SignatureURL  *string    `json:"signature_url,omitempty"`
	Rating        *int       `json:"rating,omitempty"`
	Review        *string    `json:"review,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HistoryEntry is one append-only status-history row; entries are never
// edited or deleted.
type HistoryEntry struct {
	ID             int64     `json:"-"`
	OrderID        types.ID  `json:"order_id"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	IdempotencyKey *string   `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Total applies the commercial invariant:
// totalAmount = gasPrice*quantity + deliveryFee - discount.
func Total(gasPrice int64, quantity int, deliveryFee, discount int64) int64 {
	return gasPrice*int64(quantity) + deliveryFee - discount
}

// AllowedTransitions represents the order state flow (diagram) as code.
// CANCELLED is absorbing from every non-terminal state.
var AllowedTransitions = map[Status][]Status{
	StatusPending:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusPreparing, StatusRiderAssigned, StatusCancelled},
	StatusPreparing:     {StatusRiderAssigned, StatusCancelled},
	StatusRiderAssigned: {StatusPickedUp, StatusCancelled},
	StatusPickedUp:      {StatusInTransit, StatusArrived, StatusDelivered, StatusCancelled},
	StatusInTransit:     {StatusArrived, StatusDelivered, StatusCancelled},
	StatusArrived:       {StatusDelivered, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are ever accepted.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// transitionActors lists who may drive an order INTO each status.
var transitionActors = map[Status][]Actor{
	StatusConfirmed:     {ActorManager, ActorAdmin},
	StatusPreparing:     {ActorManager, ActorAdmin},
	StatusRiderAssigned: {ActorManager, ActorAdmin, ActorSystem},
	StatusPickedUp:      {ActorRider},
	StatusInTransit:     {ActorRider},
	StatusArrived:       {ActorRider},
	StatusDelivered:     {ActorRider},
	StatusCancelled:     {ActorCustomer, ActorManager, ActorAdmin},
}

// ActorAllowed decides per-actor transition authorization. Customers may only
// cancel before the order is handed to a rider.
func ActorAllowed(from, to Status, a Actor) bool {
	if to == StatusCancelled && a == ActorCustomer {
		return from == StatusPending || from == StatusConfirmed || from == StatusPreparing
	}
	for _, allowed := range transitionActors[to] {
		if allowed == a {
			return true
		}
	}
	return false
}

// Event names pushed to connected dashboards on accepted mutations.
const (
	EventOrderCreated  = "ORDER_CREATED"
	EventOrderUpdated  = "ORDER_UPDATED"
	EventStatusChanged = "ORDER_STATUS_CHANGED"
	EventRiderAssigned = "RIDER_ASSIGNED"
)
