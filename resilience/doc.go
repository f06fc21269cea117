// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - WithTimeout: Races an operation against a deadline
//   - Chain: Tries a primary operation, then fallbacks in priority order
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Controls request rate with token bucket algorithm
//
// Each pattern wraps a caller-supplied operation and either resolves a
// failure locally (retry it, try the next fallback, reject it fast) or
// annotates it before returning, so the outermost error always carries
// enough context to diagnose the call.
//
// Patterns compose by wrapping one another; the Executor builds the
// conventional chain in one place:
//
//	exec := resilience.NewExecutor("billing",
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("billing"))),
//	    resilience.WithRetry(resilience.DefaultRetryConfig()),
//	    resilience.WithAttemptTimeout(2*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callBillingAPI(ctx)
//	})
package resilience
