// Package storage defines the server-side persistence interfaces for
// forms, submissions and webhook subscriptions, with an in-memory fixture
// implementation for stub mode and a Postgres implementation for
// production.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xordon/webform-go/internal/domain"
)

// ErrNotFound is returned when a form does not exist or is not published.
var ErrNotFound = errors.New("storage: form not found")

// Store is the persistence surface the public API needs.
type Store interface {
	// PublicForm returns a published form with its live submission count.
	// Unpublished or missing forms yield ErrNotFound.
	PublicForm(ctx context.Context, id string) (*domain.Form, error)

	// RecordView logs a form view. Failures must never block a form load;
	// callers ignore the error after logging it.
	RecordView(ctx context.Context, formID, addr, userAgent string) error

	// RecordStart logs that a visitor began filling the form.
	RecordStart(ctx context.Context, formID, addr, userAgent string) error

	// InsertSubmission stores a submission and increments the form's count.
	InsertSubmission(ctx context.Context, sub *domain.Submission) error

	// HasRecentSubmission reports whether the address submitted this form
	// after the given time (server-side duplicate prevention).
	HasRecentSubmission(ctx context.Context, formID, addr string, since time.Time) (bool, error)

	// Webhooks returns the enabled webhook subscriptions for a form,
	// including workspace-wide ones not bound to a single form.
	Webhooks(ctx context.Context, formID string) ([]domain.Webhook, error)
}
