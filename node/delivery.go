package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tap-x-project/tap/internal/metrics"
	"github.com/tap-x-project/tap/node/store"
)

// DeliveryClient POSTs a packed envelope to a recipient's resolved
// endpoint, grounded on pkg/agent/transport/http's HTTPTransport: a
// plain net/http.Client with a request timeout, JSON body, no retry
// logic of its own (retries are the Scheduler's job).
type DeliveryClient struct {
	httpClient *http.Client
}

// NewDeliveryClient builds a client with the given per-request timeout.
func NewDeliveryClient(timeout time.Duration) *DeliveryClient {
	return &DeliveryClient{httpClient: &http.Client{Timeout: timeout}}
}

// Post sends packed to url and returns the HTTP status code reached, or
// an error if the request itself could not be completed (network
// failure, context cancellation).
func (c *DeliveryClient) Post(ctx context.Context, url string, packed json.RawMessage) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(packed))
	if err != nil {
		return 0, fmt.Errorf("node: building delivery request to %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/didcomm-encrypted+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// DeliveryConfig tunes the retry policy and scheduler cadence (§4.I).
type DeliveryConfig struct {
	// RequestTimeout bounds a single HTTP POST attempt (§5 default 30s).
	RequestTimeout time.Duration
	// RetryBase is the exponential-backoff base: next_attempt =
	// updated_at + RetryBase*2^retry_count.
	RetryBase time.Duration
	// MaxRetries caps how many times a delivery is retried before it is
	// left Failed permanently.
	MaxRetries int
	// TickInterval is how often the Scheduler polls for due deliveries.
	TickInterval time.Duration
}

// DefaultDeliveryConfig matches spec.md §5's 30s default call timeout and
// a modest backoff/retry budget.
func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		RequestTimeout: 30 * time.Second,
		RetryBase:      time.Second,
		MaxRetries:     5,
		TickInterval:   10 * time.Second,
	}
}

// Scheduler periodically re-sends Failed delivery rows once their
// exponential backoff window has elapsed (§4.I).
type Scheduler struct {
	store  store.Store
	client *DeliveryClient
	events *EventBus
	cfg    DeliveryConfig
}

// NewScheduler builds a Scheduler over st, retrying with client per cfg.
func NewScheduler(st store.Store, client *DeliveryClient, events *EventBus, cfg DeliveryConfig) *Scheduler {
	return &Scheduler{store: st, client: client, events: events, cfg: cfg}
}

// Run ticks at cfg.TickInterval until ctx is canceled, retrying due
// deliveries on each tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RetryDue(ctx)
		}
	}
}

// RetryDue re-sends every Failed delivery whose backoff window has
// elapsed, up to cfg.MaxRetries attempts.
func (s *Scheduler) RetryDue(ctx context.Context) {
	due, err := s.store.DueDeliveries(time.Now(), s.cfg.MaxRetries)
	if err != nil {
		return
	}
	now := time.Now()
	for _, d := range due {
		if d.NextAttemptAt(s.cfg.RetryBase).After(now) {
			continue
		}
		s.attempt(ctx, d)
	}
}

// attempt POSTs one delivery row and updates its status in place.
func (s *Scheduler) attempt(ctx context.Context, d *store.Delivery) {
	msg, err := s.store.GetMessage(d.MessageID)
	if err != nil || msg == nil {
		return
	}
	status, err := s.client.Post(ctx, d.DeliveryURL, msg.Envelope)
	d.UpdatedAt = time.Now()
	d.RetryCount++
	if err != nil || status < 200 || status >= 300 {
		d.Status = store.DeliveryFailed
		d.LastHTTPStatus = status
		if err != nil {
			d.Error = err.Error()
		} else {
			d.Error = fmt.Sprintf("delivery endpoint returned status %d", status)
		}
		_ = s.store.UpdateDelivery(d)
		metrics.DeliveriesFailed.Inc()
		if s.events != nil {
			s.events.Publish(Event{Type: EventDeliveryFailed, TransactionID: msg.TransactionID, Reason: d.Error, Time: d.UpdatedAt})
		}
		return
	}
	d.Status = store.DeliverySuccess
	d.LastHTTPStatus = status
	d.Error = ""
	delivered := d.UpdatedAt
	d.DeliveredAt = &delivered
	_ = s.store.UpdateDelivery(d)
}
