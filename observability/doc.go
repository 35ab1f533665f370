// Package observability wires OpenTelemetry tracing and metrics for llmflow.
//
// Telemetry is opt-in through Config.Enabled. Setup installs OTLP HTTP
// exporters and returns the shared Metrics instruments:
//
//	metrics, shutdown, err := observability.Setup(ctx, cfg.Observability, "llmflow", version.Short(), "development")
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
//	defer span.End()
package observability
