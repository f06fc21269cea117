// Package logger provides structured logging for faultkit using zerolog.
//
// Resilience primitives are chatty by nature (every retry, every breaker
// transition, every degraded feature is an event), so the kit routes all of
// that through one configurable logger rather than printing directly.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("circuit-breaker")
//	log.Warn("circuit opened", logger.Fields(
//	    logger.FieldPattern, "circuit_breaker",
//	    logger.FieldState, "open",
//	))
package logger
