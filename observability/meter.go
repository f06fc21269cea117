package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/faultkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments emitted by the resilience layer.
type Metrics struct {
	attemptTotal     metric.Int64Counter
	callDuration     metric.Float64Histogram
	rejectionTotal   metric.Int64Counter
	transitionTotal  metric.Int64Counter
	exhaustionTotal  metric.Int64Counter
	degradationTotal metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	attemptTotal, err := meter.Int64Counter("resilience.attempt.total",
		metric.WithDescription("Total operation attempts by pattern and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.attempt.total counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram("resilience.call.duration",
		metric.WithDescription("Duration of guarded calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.call.duration histogram: %w", err)
	}

	rejectionTotal, err := meter.Int64Counter("resilience.rejection.total",
		metric.WithDescription("Calls rejected before reaching the operation, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.rejection.total counter: %w", err)
	}

	transitionTotal, err := meter.Int64Counter("resilience.breaker.transition.total",
		metric.WithDescription("Circuit breaker state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.breaker.transition.total counter: %w", err)
	}

	exhaustionTotal, err := meter.Int64Counter("resilience.exhaustion.total",
		metric.WithDescription("Retry and fallback exhaustions by pattern"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.exhaustion.total counter: %w", err)
	}

	degradationTotal, err := meter.Int64Counter("feature.degradation.total",
		metric.WithDescription("Feature loads that ended in degraded state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating feature.degradation.total counter: %w", err)
	}

	return &Metrics{
		attemptTotal:     attemptTotal,
		callDuration:     callDuration,
		rejectionTotal:   rejectionTotal,
		transitionTotal:  transitionTotal,
		exhaustionTotal:  exhaustionTotal,
		degradationTotal: degradationTotal,
	}, nil
}

// RecordAttempt records one invocation of a guarded operation.
func (m *Metrics) RecordAttempt(ctx context.Context, name, status string) {
	m.attemptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("status", status),
	))
}

// RecordCall records a completed guarded call with its outcome and duration.
func (m *Metrics) RecordCall(ctx context.Context, name, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("status", status),
	)
	m.callDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRejection records a call rejected before the operation ran.
func (m *Metrics) RecordRejection(ctx context.Context, name, reason string) {
	m.rejectionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("reason", reason),
	))
}

// RecordTransition records a circuit breaker state transition.
func (m *Metrics) RecordTransition(ctx context.Context, name, from, to string) {
	m.transitionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordExhaustion records a retry or fallback that ran out of attempts.
func (m *Metrics) RecordExhaustion(ctx context.Context, name, pattern string) {
	m.exhaustionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("pattern", pattern),
	))
}

// RecordDegradation records a feature load that ended degraded.
func (m *Metrics) RecordDegradation(ctx context.Context, feature string) {
	m.degradationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature", feature),
	))
}
