// README: Push-channel subscriber with reconnect-and-resync semantics.
package apiclient

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"gasline/internal/reconcile"
)

// Subscriber keeps a websocket subscription alive. There is no server-side
// replay: missed events are unrecoverable, so every reconnect triggers the
// resync callback (typically a full ListOrders refetch).
type Subscriber struct {
	url      string
	token    string
	dialer   *websocket.Dialer
	onEvent  func(reconcile.Event)
	onResync func(ctx context.Context)

	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewSubscriber(url, token string, onEvent func(reconcile.Event), onResync func(ctx context.Context)) *Subscriber {
	return &Subscriber{
		url:       url,
		token:     token,
		dialer:    websocket.DefaultDialer,
		onEvent:   onEvent,
		onResync:  onResync,
		baseDelay: time.Second,
		maxDelay:  30 * time.Second,
	}
}

// Run blocks until ctx is cancelled, reconnecting with capped exponential
// backoff on every connection loss.
func (s *Subscriber) Run(ctx context.Context) {
	delay := s.baseDelay
	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := s.dial(ctx)
		if err != nil {
			log.Printf("push: dial: %v", err)
		} else {
			delay = s.baseDelay
			if !first && s.onResync != nil {
				s.onResync(ctx)
			}
			first = false
			s.readLoop(ctx, conn)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	header := map[string][]string{}
	if s.token != "" {
		header["Authorization"] = []string{"Bearer " + s.token}
	}
	conn, _, err := s.dialer.DialContext(ctx, s.url, header)
	return conn, err
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev reconcile.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("push: drop malformed event: %v", err)
			continue
		}
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}
