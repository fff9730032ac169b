package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (DispatchMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	m, err := NewDispatchMetrics(meter)
	if err != nil {
		t.Fatalf("NewDispatchMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestDispatchMetrics_RecordsCalls(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDispatch(ctx, "update_image", "h1:2375", 100*time.Millisecond, nil)
	m.RecordDispatch(ctx, "run", "h1:2375", 50*time.Millisecond, errors.New("dial failed"))

	rm := collect(t, reader)

	if got := sumValue(t, rm, "dispatch.calls.total"); got != 2 {
		t.Errorf("dispatch.calls.total = %d, want 2", got)
	}
	if got := sumValue(t, rm, "dispatch.calls.errors"); got != 1 {
		t.Errorf("dispatch.calls.errors = %d, want 1", got)
	}

	hist := findMetric(rm, "dispatch.calls.duration_ms")
	if hist == nil {
		t.Fatal("dispatch.calls.duration_ms metric not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("duration histogram count = %d, want 2", count)
	}
}

func TestDispatchMetrics_NoErrorCounterOnSuccess(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordDispatch(context.Background(), "run", "h1:2375", time.Millisecond, nil)

	rm := collect(t, reader)
	if got := sumValue(t, rm, "dispatch.calls.errors"); got != 0 {
		t.Errorf("dispatch.calls.errors = %d, want 0 after a success", got)
	}
}

func TestDispatchMetrics_RecordsBreakerTransitions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBreakerTransition(ctx, "h1:2375", "closed", "open")
	m.RecordBreakerTransition(ctx, "h1:2375", "open", "half-open")

	rm := collect(t, reader)
	if got := sumValue(t, rm, "dispatch.breaker.transitions"); got != 2 {
		t.Errorf("dispatch.breaker.transitions = %d, want 2", got)
	}
}

func TestNopDispatchMetrics(t *testing.T) {
	m := NopDispatchMetrics()

	// Must be safe with no meter behind it.
	m.RecordDispatch(context.Background(), "run", "h1:2375", time.Second, errors.New("x"))
	m.RecordBreakerTransition(context.Background(), "h1:2375", "closed", "open")
}
