package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics records dispatch outcomes per host and operation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type DispatchMetrics interface {
	// RecordDispatch records one engine call with duration and error status.
	RecordDispatch(ctx context.Context, operation, address string, duration time.Duration, err error)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, address, from, to string)
}

// dispatchMetrics is the concrete implementation of DispatchMetrics.
type dispatchMetrics struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	transitions  metric.Int64Counter
}

// NewDispatchMetrics creates a DispatchMetrics instance on the given meter.
func NewDispatchMetrics(meter metric.Meter) (DispatchMetrics, error) {
	totalCount, err := meter.Int64Counter(
		"dispatch.calls.total",
		metric.WithDescription("Total number of engine calls dispatched"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"dispatch.calls.errors",
		metric.WithDescription("Total number of failed engine calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"dispatch.calls.duration_ms",
		metric.WithDescription("Engine call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"dispatch.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &dispatchMetrics{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		transitions:  transitions,
	}, nil
}

func (m *dispatchMetrics) RecordDispatch(ctx context.Context, operation, address string, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("dispatch.operation", operation),
		attribute.String("dispatch.host", address),
	)

	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *dispatchMetrics) RecordBreakerTransition(ctx context.Context, address, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dispatch.host", address),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

// NopDispatchMetrics returns a DispatchMetrics that records nothing.
func NopDispatchMetrics() DispatchMetrics { return nopDispatchMetrics{} }

type nopDispatchMetrics struct{}

func (nopDispatchMetrics) RecordDispatch(ctx context.Context, operation, address string, duration time.Duration, err error) {
}

func (nopDispatchMetrics) RecordBreakerTransition(ctx context.Context, address, from, to string) {}
