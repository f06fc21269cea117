package feature

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/faultkit/observability"
)

func TestRegistry_LoadSuccess(t *testing.T) {
	r := NewRegistry()

	ok := r.Load("search", func() (any, error) {
		return "search-impl", nil
	})
	if !ok {
		t.Fatal("expected Load to report success")
	}
	if !r.IsActive("search") {
		t.Error("expected feature active after successful load")
	}
	if r.Status("search") != StatusActive {
		t.Errorf("expected StatusActive, got %s", r.Status("search"))
	}
}

func TestRegistry_LoadFailureNeverPropagates(t *testing.T) {
	r := NewRegistry()
	loadErr := errors.New("connection refused")

	ok := r.Load("cache", func() (any, error) {
		return nil, loadErr
	})
	if ok {
		t.Fatal("expected Load to report failure")
	}
	if r.IsActive("cache") {
		t.Error("expected feature inactive after failed load")
	}
	if r.Status("cache") != StatusDegraded {
		t.Errorf("expected StatusDegraded, got %s", r.Status("cache"))
	}
	if r.Reason("cache") != "connection refused" {
		t.Errorf("expected the load error recorded as reason, got %q", r.Reason("cache"))
	}
}

func TestRegistry_LoadRecoversPanic(t *testing.T) {
	r := NewRegistry()

	ok := r.Load("broken", func() (any, error) {
		panic("boom")
	})
	if ok {
		t.Fatal("expected Load to report failure on panic")
	}
	if r.Status("broken") != StatusDegraded {
		t.Errorf("expected StatusDegraded, got %s", r.Status("broken"))
	}
	if r.Reason("broken") == "" {
		t.Error("expected panic text recorded as reason")
	}
}

func TestRegistry_UnknownNames(t *testing.T) {
	r := NewRegistry()

	if r.IsActive("never-loaded") {
		t.Error("unknown feature must not be active")
	}
	if r.Status("never-loaded") != StatusUnknown {
		t.Errorf("expected StatusUnknown, got %s", r.Status("never-loaded"))
	}
	if r.Reason("never-loaded") != "" {
		t.Errorf("expected empty reason, got %q", r.Reason("never-loaded"))
	}
}

func TestRegistry_UseReturnsImplementation(t *testing.T) {
	r := NewRegistry()
	r.Load("search", func() (any, error) {
		return "real-impl", nil
	})

	got := r.Use("search", "fallback-impl")
	if got != "real-impl" {
		t.Errorf("expected the loaded implementation, got %v", got)
	}
}

func TestRegistry_UseFallsBack(t *testing.T) {
	r := NewRegistry()
	r.Load("cache", func() (any, error) {
		return nil, errors.New("down")
	})

	tests := []struct {
		name    string
		feature string
	}{
		{"degraded feature", "cache"},
		{"unknown feature", "missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Use(tc.feature, "fallback-impl")
			if got != "fallback-impl" {
				t.Errorf("expected fallback, got %v", got)
			}
		})
	}
}

func TestUse_Typed(t *testing.T) {
	r := NewRegistry()
	r.Load("limit", func() (any, error) {
		return 100, nil
	})

	if got := Use(r, "limit", 10); got != 100 {
		t.Errorf("expected loaded value 100, got %d", got)
	}
	if got := Use(r, "missing", 10); got != 10 {
		t.Errorf("expected fallback 10, got %d", got)
	}
	// Mistyped handle falls back rather than panicking.
	if got := Use(r, "limit", "default"); got != "default" {
		t.Errorf("expected fallback on type mismatch, got %q", got)
	}
}

func TestRegistry_ReloadOverwrites(t *testing.T) {
	r := NewRegistry()

	r.Load("search", func() (any, error) {
		return nil, errors.New("first attempt failed")
	})
	if r.Status("search") != StatusDegraded {
		t.Fatalf("expected StatusDegraded, got %s", r.Status("search"))
	}

	r.Load("search", func() (any, error) {
		return "recovered-impl", nil
	})
	if r.Status("search") != StatusActive {
		t.Errorf("expected StatusActive after reload, got %s", r.Status("search"))
	}
	if got := r.Use("search", nil); got != "recovered-impl" {
		t.Errorf("expected reloaded implementation, got %v", got)
	}
	if r.Reason("search") != "" {
		t.Errorf("expected reason cleared after recovery, got %q", r.Reason("search"))
	}
}

func TestRegistry_ReadsAreIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Load("search", func() (any, error) {
		return "impl", nil
	})

	for i := 0; i < 3; i++ {
		if !r.IsActive("search") {
			t.Fatalf("read %d changed the observable state", i)
		}
		if r.Use("search", nil) != "impl" {
			t.Fatalf("read %d returned a different implementation", i)
		}
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.Load("search", func() (any, error) { return "impl", nil })
	r.Load("cache", func() (any, error) { return nil, errors.New("down") })

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap))
	}

	byName := make(map[string]Feature, len(snap))
	for _, f := range snap {
		byName[f.Name] = f
	}
	if byName["search"].Status != StatusActive {
		t.Errorf("expected search active, got %s", byName["search"].Status)
	}
	if byName["cache"].Status != StatusDegraded || byName["cache"].Reason == "" {
		t.Errorf("expected cache degraded with a reason, got %+v", byName["cache"])
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("feature-%d", i%3)
			r.Load(name, func() (any, error) {
				if i%2 == 0 {
					return i, nil
				}
				return nil, errors.New("down")
			})
		}(i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("feature-%d", i%3)
			r.IsActive(name)
			r.Use(name, nil)
			r.Snapshot()
		}(i)
	}
	wg.Wait()

	// Every loaded name is present with a settled status.
	for _, f := range r.Snapshot() {
		if f.Status != StatusActive && f.Status != StatusDegraded {
			t.Errorf("feature %s has unsettled status %s", f.Name, f.Status)
		}
	}
}

func TestRegistry_Health(t *testing.T) {
	r := NewRegistry()
	r.Load("search", func() (any, error) { return "impl", nil })
	r.Load("cache", func() (any, error) { return nil, errors.New("down") })

	sh := r.Health("svc", "1.0.0")
	if sh.Status != observability.HealthStatusDegraded {
		t.Errorf("expected degraded overall status, got %s", sh.Status)
	}
	if len(sh.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(sh.Components))
	}
}

func TestRegistry_WithMetricsRecordsDegradation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		t.Fatalf("creating metrics: %v", err)
	}

	r := NewRegistry(WithMetrics(metrics))
	r.Load("search", func() (any, error) { return "impl", nil })
	r.Load("cache", func() (any, error) { return nil, errors.New("down") })
	r.Load("index", func() (any, error) { panic("boom") })

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "feature.degradation.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("feature.degradation.total is not an int64 sum")
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}

	// Only the two failed loads count; the successful one does not.
	if total != 2 {
		t.Errorf("expected 2 recorded degradations, got %d", total)
	}
}
