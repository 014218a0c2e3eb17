// README: Typed API client: strict envelope, bounded retries, in-flight guards.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"gasline/internal/reconcile"
	"gasline/internal/types"
)

// Envelope is the one accepted response shape. Anything that does not
// conform is rejected, never probed for alternate nestings.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

var (
	ErrInFlight    = errors.New("a transition for this order is already in flight")
	ErrBadEnvelope = errors.New("malformed response envelope")
)

// APIError carries the server's error detail verbatim plus its status class.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Conflict reports whether the UI should prompt a refresh instead of a
// corrective resubmission.
func (e *APIError) Conflict() bool { return e.Status == http.StatusConflict }

// Retryable marks transient failures a user-facing retry affordance may
// resubmit; the client itself never auto-retries mutations.
func (e *APIError) Retryable() bool { return e.Status >= 500 }

type Client struct {
	base        string
	http        *http.Client
	token       string
	maxAttempts int
	baseDelay   time.Duration

	// onSessionReset fires on 401: clear credentials, return to login.
	onSessionReset func()

	mu       sync.Mutex
	inFlight map[types.ID]bool
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.baseDelay = baseDelay
	}
}

func WithSessionReset(fn func()) Option {
	return func(c *Client) { c.onSessionReset = fn }
}

func New(base, token string, opts ...Option) *Client {
	c := &Client{
		base:        base,
		http:        &http.Client{Timeout: 15 * time.Second},
		token:       token,
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
		inFlight:    make(map[types.ID]bool),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// get retries on connectivity/5xx with bounded exponential backoff; reads
// are idempotent so blind retry is safe.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	delay := c.baseDelay
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		err := c.do(ctx, http.MethodGet, path, nil, "", out)
		if err == nil {
			return nil
		}
		lastErr = err
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}
	}
	return lastErr
}

// post never auto-retries: a mutation that reached the server must not be
// blindly resubmitted. The idempotency key lets the caller retry explicitly.
func (c *Client) post(ctx context.Context, path string, body any, idempotencyKey string, out any) error {
	return c.do(ctx, http.MethodPost, path, body, idempotencyKey, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onSessionReset != nil {
			c.onSessionReset()
		}
		return &APIError{Status: resp.StatusCode, Message: "session expired"}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ErrBadEnvelope
	}
	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if env.Data == nil {
			return ErrBadEnvelope
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return ErrBadEnvelope
		}
	}
	return nil
}

// acquire marks an order as having a transition in flight; a second call
// before release fails rather than issuing a duplicate request.
func (c *Client) acquire(orderID types.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[orderID] {
		return ErrInFlight
	}
	c.inFlight[orderID] = true
	return nil
}

func (c *Client) release(orderID types.ID) {
	c.mu.Lock()
	delete(c.inFlight, orderID)
	c.mu.Unlock()
}

type ordersPayload struct {
	Orders []reconcile.Order `json:"orders"`
}

// ListOrders fetches the full order list; also used to resynchronize after
// a push-channel reconnect.
func (c *Client) ListOrders(ctx context.Context) ([]reconcile.Order, error) {
	var payload ordersPayload
	if err := c.get(ctx, "/api/orders", &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id types.ID) (*reconcile.Order, error) {
	var o reconcile.Order
	if err := c.get(ctx, "/api/orders/"+string(id), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

type statusUpdateReq struct {
	Status       string `json:"status"`
	DeliveryCode string `json:"delivery_code,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// UpdateStatus submits one transition request; concurrent calls for the same
// order are refused locally with ErrInFlight.
func (c *Client) UpdateStatus(ctx context.Context, orderID types.ID, status, deliveryCode, notes string) error {
	if err := c.acquire(orderID); err != nil {
		return err
	}
	defer c.release(orderID)
	return c.post(ctx, "/api/orders/"+string(orderID)+"/status",
		statusUpdateReq{Status: status, DeliveryCode: deliveryCode, Notes: notes},
		uuid.NewString(), nil)
}

func (c *Client) CancelOrder(ctx context.Context, orderID types.ID, reason string) error {
	if err := c.acquire(orderID); err != nil {
		return err
	}
	defer c.release(orderID)
	return c.post(ctx, "/api/orders/"+string(orderID)+"/status",
		statusUpdateReq{Status: "CANCELLED", Notes: reason},
		uuid.NewString(), nil)
}
