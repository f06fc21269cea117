// Package observability provides OpenTelemetry tracing and metrics for
// faultkit, plus health reporting types for degraded-capability status.
//
// Everything here is optional: the resilience primitives and the feature
// registry work with no telemetry wired. Callers that want emission
// initialize the providers once at startup:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-service"))
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
package observability
