// Package observe provides OpenTelemetry-based observability for the
// dispatch subsystem.
//
// It is a pure instrumentation library: no dispatch logic, no transport, no
// I/O beyond exporter setup. Consumers wire the Observer into the executor
// and the admin HTTP surface.
//
// # Overview
//
// observe provides three observability pillars:
//   - Tracing: OpenTelemetry spans around dispatch operations
//   - Metrics: Dispatch counters and breaker transition counters
//   - Logging: Structured JSON logging with level filtering
//
// # Core Components
//
//   - [Observer]: Main facade providing Tracer, Meter, and Logger access
//   - [Logger]: Structured JSON logging with field scoping via With
//   - [DispatchMetrics]: Records per-operation dispatch outcomes and
//     circuit breaker state transitions
//
// # Quick Start
//
//	cfg := observe.Config{
//	    ServiceName: "shipyard",
//	    Version:     "1.0.0",
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 1.0},
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	}
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obs.Shutdown(ctx)
//
// # Thread Safety
//
// All exported types are safe for concurrent use after construction.
package observe
