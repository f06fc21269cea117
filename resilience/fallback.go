package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFallbackExhausted is matched by errors.Is for any *FallbackExhaustedError.
var ErrFallbackExhausted = errors.New("all fallbacks exhausted")

// FallbackExhaustedError reports that every link in a fallback chain failed.
// Errors holds one annotated error per link, in chain order.
type FallbackExhaustedError struct {
	Errors []error
}

// Error returns the string representation of the error.
func (e *FallbackExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d fallbacks exhausted:", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, " [%d] %v;", i, err)
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Unwrap returns the per-link errors so errors.Is/As reach each of them.
func (e *FallbackExhaustedError) Unwrap() []error { return e.Errors }

// Is reports whether target is the ErrFallbackExhausted sentinel.
func (e *FallbackExhaustedError) Is(target error) bool {
	return target == ErrFallbackExhausted
}

// Link is one operation in a fallback chain.
type Link[T any] struct {
	// Name identifies the link in logs and aggregate errors.
	Name string
	// Run is the operation this link performs.
	Run func(context.Context) (T, error)
}

// ChainConfig configures a fallback chain.
type ChainConfig struct {
	// Name identifies this chain for metrics/logging.
	Name string
	// OnFallback is called after each link failure before the next link runs.
	OnFallback func(link string, err error)
}

// Chain tries an ordered sequence of operations: the first link is the
// primary, the rest are fallbacks in priority order. The first success
// short-circuits; if every link fails, Resolve returns a
// *FallbackExhaustedError aggregating each link's failure in order.
//
// A chain holds no cross-call state and is safe for concurrent use. Links
// are plain operations, so a link may itself be a retried, breaker-guarded,
// or timeout-guarded call, or another chain's Resolve.
type Chain[T any] struct {
	config ChainConfig
	links  []Link[T]
}

// NewChain creates a fallback chain from the given links.
func NewChain[T any](config ChainConfig, links ...Link[T]) *Chain[T] {
	return &Chain[T]{config: config, links: links}
}

// Add appends a named link to the chain and returns the chain.
func (c *Chain[T]) Add(name string, fn func(context.Context) (T, error)) *Chain[T] {
	c.links = append(c.links, Link[T]{Name: name, Run: fn})
	return c
}

// Len returns the number of links in the chain.
func (c *Chain[T]) Len() int { return len(c.links) }

// Resolve tries each link in order and returns the first success.
func (c *Chain[T]) Resolve(ctx context.Context) (T, error) {
	var zero T

	if len(c.links) == 0 {
		return zero, fmt.Errorf("fallback chain %q has no links", c.config.Name)
	}

	linkErrs := make([]error, 0, len(c.links))

	for _, link := range c.links {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := link.Run(ctx)
		if err == nil {
			return result, nil
		}

		linkErrs = append(linkErrs, fmt.Errorf("%s: %w", link.Name, err))

		if c.config.OnFallback != nil {
			c.config.OnFallback(link.Name, err)
		}
	}

	return zero, &FallbackExhaustedError{Errors: linkErrs}
}

// Fallback resolves an ad hoc chain built from the given operations, primary
// first. Links are named by position.
func Fallback[T any](ctx context.Context, ops ...func(context.Context) (T, error)) (T, error) {
	chain := &Chain[T]{}
	for i, op := range ops {
		chain.Add(fmt.Sprintf("link-%d", i), op)
	}
	return chain.Resolve(ctx)
}
