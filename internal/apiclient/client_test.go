// README: API client tests: envelope strictness, retry policy, in-flight guard.
package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization header = %q", got)
		}
		w.Write([]byte(`{"success":true,"data":{"orders":[{"id":"o1","status":"PENDING"},{"id":"o2","status":"DELIVERED"}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	orders, err := c.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "o1" || orders[1].Status != "DELIVERED" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestStrictEnvelope(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bare_array", `[{"id":"o1"}]`},
		{"wrong_nesting", `{"success":true,"orders":[{"id":"o1"}]}`},
		{"missing_data", `{"success":true}`},
		{"not_json", `<html>boom</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "tok")
			_, err := c.ListOrders(context.Background())
			if !errors.Is(err, ErrBadEnvelope) {
				t.Fatalf("expected ErrBadEnvelope, got %v", err)
			}
		})
	}
}

func TestGetRetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"error":"temporarily unavailable"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":{"orders":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", WithRetry(3, time.Millisecond))
	if _, err := c.ListOrders(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestGetRetriesAreBounded(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"success":false,"error":"down"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", WithRetry(3, time.Millisecond))
	_, err := c.ListOrders(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Retryable() {
		t.Fatalf("expected retryable APIError, got %v", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", n)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":"order not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", WithRetry(3, time.Millisecond))
	_, err := c.GetOrder(context.Background(), "o_missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if apiErr.Error() != "order not found" {
		t.Fatalf("expected server detail verbatim, got %q", apiErr.Error())
	}
	if n := attempts.Load(); n != 1 {
		t.Fatalf("expected 1 attempt, got %d", n)
	}
}

func TestPostNeverAutoRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", WithRetry(3, time.Millisecond))
	err := c.UpdateStatus(context.Background(), "o1", "CONFIRMED", "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Retryable() {
		t.Fatalf("expected retryable APIError, got %v", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Fatalf("mutation was auto-retried: %d attempts", n)
	}
}

func TestMutationsCarryIdempotencyKey(t *testing.T) {
	keys := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	if err := c.UpdateStatus(context.Background(), "o1", "CONFIRMED", "", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.UpdateStatus(context.Background(), "o1", "PREPARING", "", ""); err != nil {
		t.Fatalf("update: %v", err)
	}

	k1, k2 := <-keys, <-keys
	if k1 == "" || k2 == "" {
		t.Fatal("expected Idempotency-Key on every mutation")
	}
	if k1 == k2 {
		t.Fatal("expected a fresh key per request")
	}
}

func TestInFlightGuard(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var enteredOnce sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		enteredOnce.Do(func() { close(entered) })
		<-unblock
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	done := make(chan error, 1)
	go func() {
		done <- c.UpdateStatus(context.Background(), "o1", "PICKED_UP", "", "")
	}()

	<-entered
	// Second transition for the same order while the first is pending.
	if err := c.CancelOrder(context.Background(), "o1", "changed my mind"); err != ErrInFlight {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}

	// The guard is released after completion.
	if err := c.UpdateStatus(context.Background(), "o1", "IN_TRANSIT", "", ""); err != nil {
		t.Fatalf("after release: %v", err)
	}
}

func TestSessionResetOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var reset atomic.Bool
	c := New(srv.URL, "expired", WithSessionReset(func() { reset.Store(true) }))
	_, err := c.ListOrders(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if !reset.Load() {
		t.Fatal("expected session reset callback")
	}
}

func TestConflictClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":"order state conflict"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	err := c.UpdateStatus(context.Background(), "o1", "CONFIRMED", "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.Conflict() {
		t.Fatal("409 should classify as conflict")
	}
	if apiErr.Retryable() {
		t.Fatal("409 must not classify as retryable")
	}
}
