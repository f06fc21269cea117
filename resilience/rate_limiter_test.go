package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should be allowed within the burst", i)
		}
	}
	if rl.Allow() {
		t.Error("request beyond the burst should be rejected")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0,
		Burst: 1,
	})

	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow() {
		t.Error("second request should be rejected with the bucket empty")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0,
		Burst: 1,
	})
	rl.Allow()

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// One token at 100/s refills in about 10ms.
	if elapsed < 5*time.Millisecond || elapsed > 50*time.Millisecond {
		t.Errorf("expected a wait around 10ms, got %v", elapsed)
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  1.0,
		Burst: 1,
	})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 1,
	})

	var called bool
	if err := rl.Execute(func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("operation was not invoked")
	}

	err := rl.Execute(func() error {
		t.Error("operation must not run when rate limited")
		return nil
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_ExecuteWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0,
		Burst: 1,
	})
	rl.Allow()

	var called bool
	if err := rl.ExecuteWait(context.Background(), func() error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("operation was not invoked after the wait")
	}
}

func TestRateLimiter_OnLimit(t *testing.T) {
	var limited int32
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 1,
		OnLimit: func(name string) {
			atomic.AddInt32(&limited, 1)
		},
	})

	rl.Allow()
	rl.Allow()
	rl.Allow()

	if limited != 2 {
		t.Errorf("expected 2 limit callbacks, got %d", limited)
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	if !rl.AllowN(5) {
		t.Error("should allow a batch of 5 within the burst")
	}
	if rl.Allow() {
		t.Error("should reject after the burst is spent")
	}
}

func TestRateLimiter_Tokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	if got := rl.Tokens(); got < 4.9 || got > 5.1 {
		t.Errorf("expected a full bucket of ~5 tokens, got %f", got)
	}

	rl.AllowN(3)

	// Refill adds a sliver between calls, so compare loosely.
	if got := rl.Tokens(); got < 1.9 || got > 2.5 {
		t.Errorf("expected ~2 tokens, got %f", got)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "test"})

	// Zero config falls back to 10/s with a burst equal to the rate.
	for i := 0; i < 10; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should fit in the default burst", i)
		}
	}
	if rl.Allow() {
		t.Error("request beyond the default burst should be rejected")
	}
}
