package checkout

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess         = "success"
	outcomeEmptyCart       = "empty_cart"
	outcomeInProgress      = "in_progress"
	outcomeUnauthenticated = "unauthenticated"
	outcomeInvalid         = "invalid"
	outcomeOrderFailed     = "order_failed"
	outcomePaymentFailed   = "payment_failed"
)

type Metrics struct {
	submissions metric.Int64Counter
	duration    metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	submissions, err := meter.Int64Counter(
		"storefront.checkout.submissions",
		metric.WithDescription("Checkout submissions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"storefront.checkout.duration",
		metric.WithDescription("Time spent processing a checkout submission"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{submissions: submissions, duration: duration}, nil
}

func (m *Metrics) record(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.submissions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func outcomeOf(err error) string {
	var validationErr *ValidationError
	var persistenceErr *PersistenceError
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrEmptyCart):
		return outcomeEmptyCart
	case errors.Is(err, ErrSubmissionInProgress):
		return outcomeInProgress
	case errors.Is(err, ErrAuthenticationRequired):
		return outcomeUnauthenticated
	case errors.As(err, &validationErr):
		return outcomeInvalid
	case errors.As(err, &persistenceErr) && persistenceErr.Step == StepPayment:
		return outcomePaymentFailed
	default:
		return outcomeOrderFailed
	}
}
