package observe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// TestExporter_InvalidName verifies unknown tracing exporter names error.
func TestExporter_InvalidName(t *testing.T) {
	_, err := newTracingExporter(context.Background(), "carrier-pigeon")
	if !errors.Is(err, ErrInvalidExporter) {
		t.Fatalf("newTracingExporter(carrier-pigeon) error = %v, want ErrInvalidExporter", err)
	}
}

// TestExporter_MetricsInvalidName verifies unknown metrics exporter names error.
func TestExporter_MetricsInvalidName(t *testing.T) {
	_, err := newMetricsReader(context.Background(), "carrier-pigeon")
	if !errors.Is(err, ErrInvalidExporter) {
		t.Fatalf("newMetricsReader(carrier-pigeon) error = %v, want ErrInvalidExporter", err)
	}
}

// TestExporter_StdoutTracing verifies the stdout tracing exporter.
func TestExporter_StdoutTracing(t *testing.T) {
	exp, err := newTracingExporter(context.Background(), "stdout")
	if err != nil {
		t.Fatalf("failed to create stdout tracing exporter: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

// TestExporter_StdoutMetrics verifies the stdout metrics reader.
func TestExporter_StdoutMetrics(t *testing.T) {
	reader, err := newMetricsReader(context.Background(), "stdout")
	if err != nil {
		t.Fatalf("failed to create stdout metrics reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

// TestExporter_OtlpMissingEndpoint verifies OTLP without endpoint env fails.
func TestExporter_OtlpMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := newTracingExporter(context.Background(), "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("newTracingExporter(otlp) error = %v, want ErrEndpointNotConfigured", err)
	}
	if _, err := newMetricsReader(context.Background(), "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("newMetricsReader(otlp) error = %v, want ErrEndpointNotConfigured", err)
	}
}

// TestExporter_OtlpWithEndpoint verifies OTLP with endpoint env succeeds.
func TestExporter_OtlpWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := newTracingExporter(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("failed to create OTLP tracing exporter with endpoint: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}

	reader, err := newMetricsReader(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("failed to create OTLP metrics reader with endpoint: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

// TestExporter_PrometheusReturnsReader verifies the Prometheus metrics reader.
func TestExporter_PrometheusReturnsReader(t *testing.T) {
	reader, err := newMetricsReader(context.Background(), "prometheus")
	if err != nil {
		t.Fatalf("failed to create Prometheus reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

// TestExporter_NoneReturnsDiscard verifies "none" and "" yield discarding
// exporters rather than errors.
func TestExporter_NoneReturnsDiscard(t *testing.T) {
	for _, name := range []string{"none", ""} {
		if _, err := newTracingExporter(context.Background(), name); err != nil {
			t.Errorf("newTracingExporter(%q) error = %v", name, err)
		}
		if _, err := newMetricsReader(context.Background(), name); err != nil {
			t.Errorf("newMetricsReader(%q) error = %v", name, err)
		}
	}
}

// TestExporter_ValidateAgreesWithConstructors verifies Config.Validate
// accepts exactly the names the constructors accept.
func TestExporter_ValidateAgreesWithConstructors(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	for name := range validTracingExporters {
		t.Run("tracing/"+name, func(t *testing.T) {
			cfg := Config{
				ServiceName: "shipyard",
				Tracing:     TracingConfig{Enabled: true, Exporter: name},
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() rejected %q: %v", name, err)
			}
			if _, err := newTracingExporter(context.Background(), name); err != nil {
				t.Fatalf("newTracingExporter(%q) error = %v", name, err)
			}
		})
	}

	for name := range validMetricsExporters {
		t.Run("metrics/"+name, func(t *testing.T) {
			cfg := Config{
				ServiceName: "shipyard",
				Metrics:     MetricsConfig{Enabled: true, Exporter: name},
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() rejected %q: %v", name, err)
			}
			if _, err := newMetricsReader(context.Background(), name); err != nil {
				t.Fatalf("newMetricsReader(%q) error = %v", name, err)
			}
		})
	}

	// And both reject what the other rejects.
	if err := (&Config{
		ServiceName: "shipyard",
		Tracing:     TracingConfig{Enabled: true, Exporter: "carrier-pigeon"},
	}).Validate(); err == nil || !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("Validate() error = %v, want unknown-exporter rejection", err)
	}
}
