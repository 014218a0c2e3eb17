// README: Websocket hub; fans events out to role- and user-scoped rooms.
package push

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn  *websocket.Conn
	rooms map[string]bool
	send  chan []byte
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Join registers a connection in its rooms and starts its writer. The
// caller owns the read side (and must call Leave when reads fail).
func (h *Hub) Join(conn *websocket.Conn, rooms []string) *Subscription {
	c := &client{
		conn:  conn,
		rooms: make(map[string]bool, len(rooms)),
		send:  make(chan []byte, 64),
	}
	for _, r := range rooms {
		c.rooms[r] = true
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writeLoop()
	return &Subscription{hub: h, c: c}
}

// Publish sends the event to every client subscribed to any of the rooms.
// Slow clients are dropped rather than blocking the hub.
func (h *Hub) Publish(_ context.Context, rooms []string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("push: marshal event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.inAny(rooms) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			go h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *client) inAny(rooms []string) bool {
	for _, r := range rooms {
		if c.rooms[r] {
			return true
		}
	}
	return false
}

func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.Close()
}

// Subscription lets the transport layer detach a closed connection.
type Subscription struct {
	hub *Hub
	c   *client
}

func (s *Subscription) Close() {
	s.hub.remove(s.c)
	_ = s.c.conn.Close()
}
