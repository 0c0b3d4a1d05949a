package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for the form runtime.
type Metrics struct {
	SubmissionsStored metric.Int64Counter
	GateBlocks        metric.Int64Counter
	ValidationFails   metric.Int64Counter
	WebhookFailures   metric.Int64Counter
}

// NewMetrics creates the form-runtime metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("webform")

	submissions, err := meter.Int64Counter("webform.submissions.stored",
		metric.WithDescription("Number of submissions accepted and stored"),
	)
	if err != nil {
		return nil, err
	}

	gateBlocks, err := meter.Int64Counter("webform.gate.blocks",
		metric.WithDescription("Number of requests blocked by a gate state"),
	)
	if err != nil {
		return nil, err
	}

	validationFails, err := meter.Int64Counter("webform.validation.failures",
		metric.WithDescription("Number of pre-submit validation failures"),
	)
	if err != nil {
		return nil, err
	}

	webhookFailures, err := meter.Int64Counter("webform.webhook.failures",
		metric.WithDescription("Number of failed webhook deliveries"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SubmissionsStored: submissions,
		GateBlocks:        gateBlocks,
		ValidationFails:   validationFails,
		WebhookFailures:   webhookFailures,
	}, nil
}

// RecordSubmission records an accepted submission for a form.
// All Record methods are safe on a nil receiver so callers without
// metrics configured can skip the plumbing.
func (m *Metrics) RecordSubmission(ctx context.Context, formID string) {
	if m == nil {
		return
	}
	m.SubmissionsStored.Add(ctx, 1,
		metric.WithAttributes(attribute.String("form_id", formID)),
	)
}

// RecordGateBlock records a request turned away by the named gate state.
func (m *Metrics) RecordGateBlock(ctx context.Context, formID, state string) {
	if m == nil {
		return
	}
	m.GateBlocks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("form_id", formID),
			attribute.String("state", state),
		),
	)
}

// RecordValidationFailure records a pre-submit validation rejection.
func (m *Metrics) RecordValidationFailure(ctx context.Context, formID string) {
	if m == nil {
		return
	}
	m.ValidationFails.Add(ctx, 1,
		metric.WithAttributes(attribute.String("form_id", formID)),
	)
}

// RecordWebhookFailure records a webhook delivery that failed or was rejected.
func (m *Metrics) RecordWebhookFailure(ctx context.Context, webhookID string) {
	if m == nil {
		return
	}
	m.WebhookFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("webhook_id", webhookID)),
	)
}
