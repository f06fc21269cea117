package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/faultkit/logger"
	"github.com/kbukum/faultkit/observability"
)

// Executor composes the resilience patterns around one protected dependency.
//
// The execution order, outermost first, is:
//
//	rate limiter -> bulkhead -> circuit breaker -> retry -> timeout -> operation
//
// so cheap rejections happen before any capacity is consumed, the breaker
// records one verdict per retried sequence rather than per attempt, and the
// timeout bounds each individual attempt.
type Executor struct {
	name     string
	breaker  *CircuitBreaker
	retry    *RetryConfig
	timeout  time.Duration
	bulkhead *Bulkhead
	limiter  *RateLimiter
	log      *logger.Logger
	metrics  *observability.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor for the named dependency.
func NewExecutor(name string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		name: name,
		log:  logger.Get("resilience"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker guards the operation with a circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

// WithRetry retries failing attempts according to cfg.
func WithRetry(cfg RetryConfig) ExecutorOption {
	return func(e *Executor) { e.retry = &cfg }
}

// WithAttemptTimeout bounds each attempt to the given duration.
func WithAttemptTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

// WithBulkhead limits concurrent calls through the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithRateLimiter rejects calls above the configured rate.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = rl }
}

// WithLogger overrides the executor's logger.
func WithLogger(l *logger.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// WithMetrics records executor outcomes on the given instruments.
func WithMetrics(m *observability.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// BreakerTransitions returns an OnStateChange hook that records every
// breaker transition on the given instruments. The hook runs with the
// breaker lock held, so it must stay cheap.
func BreakerTransitions(m *observability.Metrics) func(name string, from, to State) {
	return func(name string, from, to State) {
		m.RecordTransition(context.Background(), name, from.String(), to.String())
	}
}

// Execute runs op through every configured pattern.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	callID := uuid.NewString()
	start := time.Now()

	err := e.buildChain(op)(ctx)

	elapsed := time.Since(start)
	e.observe(ctx, callID, err, elapsed)
	return err
}

// ExecuteCall runs a result-returning operation through the executor.
func ExecuteCall[T any](e *Executor, ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// buildChain wraps op with the configured patterns, inside out.
func (e *Executor) buildChain(op func(context.Context) error) func(context.Context) error {
	execute := op

	if e.timeout > 0 {
		inner := execute
		timeout := e.timeout
		execute = func(ctx context.Context) error {
			return WithTimeoutFunc(ctx, timeout, inner)
		}
	}

	// Attempt accounting sits inside the retry wrapper so every attempt,
	// timed-out ones included, is counted individually.
	if e.metrics != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			err := inner(ctx)
			status := "ok"
			if err != nil {
				status = "error"
			}
			e.metrics.RecordAttempt(ctx, e.name, status)
			return err
		}
	}

	if e.retry != nil {
		inner := execute
		cfg := *e.retry
		execute = func(ctx context.Context) error {
			return RetryFunc(ctx, cfg, func() error {
				return inner(ctx)
			})
		}
	}

	if e.breaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.breaker.Execute(func() error {
				return inner(ctx)
			})
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, func() error {
				return inner(ctx)
			})
		}
	}

	if e.limiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			if !e.limiter.Allow() {
				return ErrRateLimited
			}
			return inner(ctx)
		}
	}

	return execute
}

// observe logs and measures the outcome of one call.
func (e *Executor) observe(ctx context.Context, callID string, err error, elapsed time.Duration) {
	fields := logger.Fields(
		logger.FieldCallID, callID,
		logger.FieldOperation, e.name,
		logger.FieldDuration, elapsed.Milliseconds(),
	)

	status := "ok"
	switch {
	case err == nil:
		e.log.Debug("call succeeded", fields)
	case errors.Is(err, ErrCircuitOpen):
		status = "circuit_open"
		e.log.Warn("call rejected: circuit open", fields)
	case errors.Is(err, ErrRateLimited):
		status = "rate_limited"
		e.log.Warn("call rejected: rate limited", fields)
	case errors.Is(err, ErrBulkheadFull) || errors.Is(err, ErrBulkheadTimeout):
		status = "bulkhead_full"
		e.log.Warn("call rejected: bulkhead full", fields)
	case errors.Is(err, ErrMaxRetriesExceeded):
		status = "retries_exhausted"
		e.log.WithError(err).Error("call failed: retries exhausted", fields)
	case errors.Is(err, ErrTimeout):
		status = "timeout"
		e.log.WithError(err).Warn("call failed: timeout", fields)
	default:
		status = "error"
		e.log.WithError(err).Error("call failed", fields)
	}

	if e.metrics == nil {
		return
	}

	e.metrics.RecordCall(ctx, e.name, status, elapsed)
	switch status {
	case "circuit_open", "rate_limited", "bulkhead_full":
		e.metrics.RecordRejection(ctx, e.name, status)
	case "retries_exhausted":
		e.metrics.RecordExhaustion(ctx, e.name, "retry")
	}
}
