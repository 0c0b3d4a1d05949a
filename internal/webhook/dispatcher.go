// Package webhook dispatches submission events to subscribed endpoints.
// Delivery is concurrent and best-effort: a failing endpoint is logged and
// skipped, never surfaced to the visitor whose submission triggered it.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xordon/webform-go/internal/domain"
)

// EventSubmissionCreated is emitted after a submission is stored.
const EventSubmissionCreated = "submission.created"

const deliveryTimeout = 5 * time.Second

// Event is the envelope posted to subscribers.
type Event struct {
	Event      string          `json:"event"`
	Timestamp  string          `json:"timestamp"`
	Form       EventForm       `json:"form"`
	Submission EventSubmission `json:"submission"`
}

// EventForm identifies the form the event belongs to.
type EventForm struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// EventSubmission carries the stored submission and its capture metadata.
type EventSubmission struct {
	ID       string                `json:"id"`
	Data     domain.SubmissionData `json:"data"`
	Metadata EventMetadata         `json:"metadata"`
}

// EventMetadata is the capture context recorded with the submission.
type EventMetadata struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewSubmissionCreated builds the submission.created envelope.
func NewSubmissionCreated(form *domain.Form, sub *domain.Submission) Event {
	return Event{
		Event:     EventSubmissionCreated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Form:      EventForm{ID: form.ID, Title: form.Title},
		Submission: EventSubmission{
			ID:   sub.ID,
			Data: sub.Data,
			Metadata: EventMetadata{
				IPAddress: sub.IPAddress,
				UserAgent: sub.UserAgent,
			},
		},
	}
}

// Dispatcher delivers events over HTTP.
type Dispatcher struct {
	client    *http.Client
	logger    *slog.Logger
	onFailure func(ctx context.Context, hook domain.Webhook)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFailureHook registers fn to run once per failed or rejected delivery.
func WithFailureHook(fn func(ctx context.Context, hook domain.Webhook)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

// New creates a Dispatcher. A nil client gets a default with the delivery
// timeout applied.
func New(client *http.Client, logger *slog.Logger, opts ...Option) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: deliveryTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{client: client, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch fans the event out to every subscribed hook concurrently and
// waits for completion. The returned error is nil unless the event itself
// cannot be encoded; per-hook failures are only logged.
func (d *Dispatcher) Dispatch(ctx context.Context, hooks []domain.Webhook, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("webhook: encode event: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, hook := range hooks {
		if !hook.Enabled || !hook.Subscribed(evt.Event) {
			continue
		}
		g.Go(func() error {
			d.deliver(ctx, hook, payload)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, hook domain.Webhook, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	method := hook.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, hook.URL, bytes.NewReader(payload))
	if err != nil {
		d.logger.Warn("webhook request build failed", "webhook", hook.ID, "error", err)
		d.failed(ctx, hook)
		return
	}
	for k, v := range hook.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook delivery failed", "webhook", hook.ID, "url", hook.URL, "error", err)
		d.failed(ctx, hook)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.logger.Warn("webhook delivery rejected", "webhook", hook.ID, "url", hook.URL, "status", resp.StatusCode)
		d.failed(ctx, hook)
	}
}

func (d *Dispatcher) failed(ctx context.Context, hook domain.Webhook) {
	if d.onFailure != nil {
		d.onFailure(ctx, hook)
	}
}
