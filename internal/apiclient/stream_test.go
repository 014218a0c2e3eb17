// README: Subscriber tests: event delivery, malformed drops, reconnect resync.
package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gasline/internal/reconcile"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscriberDeliversEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization header = %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		msgs := []string{
			`{"type":"ORDER_STATUS_CHANGED","order":{"id":"o1","status":"CONFIRMED"}}`,
			`this is not json`,
			`{"type":"RIDER_ASSIGNED","order":{"id":"o1","rider_id":"r1"}}`,
		}
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	events := make(chan reconcile.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(wsURL(srv), "tok", func(ev reconcile.Event) { events <- ev }, nil)
	go sub.Run(ctx)

	// Malformed frames are dropped; the two valid events arrive in order.
	first := waitEvent(t, events)
	if first.Type != reconcile.EventStatusChanged || first.Order == nil || first.Order.ID != "o1" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second := waitEvent(t, events)
	if second.Type != reconcile.EventRiderAssigned {
		t.Fatalf("unexpected second event: %+v", second)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriberResyncsOnReconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if conns.Add(1) == 1 {
			// Drop the first connection immediately to force a reconnect.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	resynced := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(wsURL(srv), "tok", nil, func(context.Context) {
		select {
		case resynced <- struct{}{}:
		default:
		}
	})
	sub.baseDelay = time.Millisecond
	go sub.Run(ctx)

	select {
	case <-resynced:
	case <-time.After(2 * time.Second):
		t.Fatal("expected resync callback after reconnect")
	}
	if conns.Load() < 2 {
		t.Fatalf("expected at least 2 connections, got %d", conns.Load())
	}
}

func waitEvent(t *testing.T, events chan reconcile.Event) reconcile.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return reconcile.Event{}
	}
}
