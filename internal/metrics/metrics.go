// Package metrics holds the OpenTelemetry instruments recorded per request.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used for all instruments.
const MeterName = "tcp-user-service"

// Metrics holds the request instruments.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter("tcpusers.requests",
		metric.WithDescription("Requests handled, by route and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	duration, err := meter.Float64Histogram("tcpusers.request.duration",
		metric.WithDescription("Time from accept to response written"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Metrics{requests: requests, duration: duration}, nil
}

// Record adds one request. A nil receiver records nothing.
func (m *Metrics) Record(ctx context.Context, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
