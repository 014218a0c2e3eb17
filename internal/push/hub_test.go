// README: Hub fan-out tests over real websocket connections.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gasline/internal/modules/order"
	"gasline/internal/types"
)

// dialHub upgrades one websocket pair and joins the server side to rooms.
func dialHub(t *testing.T, hub *Hub, rooms ...string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	joined := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Join(conn, rooms)
		close(joined)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	<-joined
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected message: %s", raw)
	}
}

func TestPublishRoomScoping(t *testing.T) {
	hub := NewHub()
	manager := dialHub(t, hub, RoleRoom("manager"))
	customer := dialHub(t, hub, UserRoom("c1"))
	bystander := dialHub(t, hub, UserRoom("c_other"))

	hub.Publish(context.Background(), []string{UserRoom("c1"), RoleRoom("manager"), RoleRoom("admin")},
		Event{Type: "ORDER_CREATED", Order: json.RawMessage(`{"id":"o1"}`)})

	if ev := readEvent(t, manager); ev.Type != "ORDER_CREATED" {
		t.Fatalf("manager got %s", ev.Type)
	}
	if ev := readEvent(t, customer); ev.Type != "ORDER_CREATED" {
		t.Fatalf("customer got %s", ev.Type)
	}
	expectSilence(t, bystander)
}

func TestClientInMultipleRoomsGetsOneCopyPerPublish(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, RoleRoom("manager"), UserRoom("m1"))

	hub.Publish(context.Background(), []string{RoleRoom("manager"), UserRoom("m1")},
		Event{Type: "ORDER_UPDATED", Order: json.RawMessage(`{"id":"o1"}`)})

	if ev := readEvent(t, conn); ev.Type != "ORDER_UPDATED" {
		t.Fatalf("got %s", ev.Type)
	}
	expectSilence(t, conn)
}

func TestOrderPublisherHidesDeliveryCode(t *testing.T) {
	hub := NewHub()
	manager := dialHub(t, hub, RoleRoom("manager"))
	rider := dialHub(t, hub, UserRoom("r1"))

	riderID := types.ID("r1")
	o := &order.Order{
		ID:           "o1",
		CustomerID:   "c1",
		Status:       order.StatusRiderAssigned,
		RiderID:      &riderID,
		DeliveryCode: "4821",
	}
	NewOrderPublisher(hub).PublishOrder(order.EventRiderAssigned, o)

	for _, conn := range []*websocket.Conn{manager, rider} {
		ev := readEvent(t, conn)
		if ev.Type != order.EventRiderAssigned {
			t.Fatalf("got type %s", ev.Type)
		}
		payload := string(ev.Order)
		if !strings.Contains(payload, `"o1"`) {
			t.Fatalf("order id missing from payload: %s", payload)
		}
		if strings.Contains(payload, "4821") || strings.Contains(payload, "delivery_code") {
			t.Fatalf("delivery code leaked into push payload: %s", payload)
		}
	}
}
