// README: Adapter from order mutations to hub events with room fan-out.
package push

import (
	"context"
	"encoding/json"
	"log"

	"gasline/internal/modules/order"
)

// OrderPublisher implements order.Publisher over the hub. Events go to the
// customer's room, the assigned rider's room (if any), and the manager and
// admin role rooms. The serialized order never includes the delivery code.
type OrderPublisher struct {
	hub *Hub
}

func NewOrderPublisher(hub *Hub) *OrderPublisher {
	return &OrderPublisher{hub: hub}
}

func (p *OrderPublisher) PublishOrder(eventType string, o *order.Order) {
	raw, err := json.Marshal(o)
	if err != nil {
		log.Printf("push: marshal order %s: %v", o.ID, err)
		return
	}
	rooms := []string{
		UserRoom(o.CustomerID),
		RoleRoom("manager"),
		RoleRoom("admin"),
	}
	if o.RiderID != nil {
		rooms = append(rooms, UserRoom(*o.RiderID))
	}
	p.hub.Publish(context.Background(), rooms, Event{Type: eventType, Order: raw})
}
