// Package errors provides structured error types for faultkit.
//
// It implements a unified application error with machine-readable codes and
// retryable classification. The resilience package consults this
// classification to decide whether a failure is transient (worth retrying)
// or persistent (fail fast).
//
//	err := errors.ConnectionFailed("billing-api")
//	errors.IsRetryable(err) // true
//
//	err = errors.InvalidInput("amount", "must be positive")
//	errors.IsRetryable(err) // false
package errors
