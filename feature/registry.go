package feature

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/faultkit/logger"
	"github.com/kbukum/faultkit/observability"
)

// Status is the lifecycle status of a feature.
type Status string

const (
	// StatusActive means the feature loaded and its implementation is usable.
	StatusActive Status = "active"
	// StatusDegraded means the feature failed to load; consumers fall back.
	StatusDegraded Status = "degraded"
	// StatusUnknown means the feature was never loaded.
	StatusUnknown Status = "unknown"
)

// Feature is a snapshot of one registry entry.
type Feature struct {
	// Name is the unique feature key.
	Name string
	// Status is active or degraded.
	Status Status
	// Reason is the load error text, set only when degraded.
	Reason string
}

// entry is the mutable registry record for one feature.
type entry struct {
	status Status
	impl   any
	reason string
}

// Registry tracks named optional capabilities. Entries are created by Load,
// overwritten on reload, and never deleted; they only move between active
// and degraded. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	features map[string]*entry
	log      *logger.Logger
	metrics  *observability.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMetrics records feature degradations on the given instruments.
func WithMetrics(m *observability.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty feature registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		features: make(map[string]*entry),
		log:      logger.Get("feature"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load invokes loader and records the outcome. On success the feature is
// active with the returned implementation; on failure (error or panic) it
// is degraded with the failure text. Load never propagates the loader's
// failure; it returns false so callers can log-and-continue.
func (r *Registry) Load(name string, loader func() (any, error)) (ok bool) {
	impl, err := runLoader(loader)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.features[name] = &entry{status: StatusDegraded, reason: err.Error()}
		r.log.Warn("feature degraded", logger.Fields(
			logger.FieldFeature, name,
			logger.FieldError, err.Error(),
		))
		if r.metrics != nil {
			r.metrics.RecordDegradation(context.Background(), name)
		}
		return false
	}

	r.features[name] = &entry{status: StatusActive, impl: impl}
	r.log.Info("feature loaded", logger.Fields(logger.FieldFeature, name))
	return true
}

// runLoader invokes loader, converting a panic into an error.
func runLoader(loader func() (any, error)) (impl any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("loader panicked: %v", rec)
		}
	}()
	return loader()
}

// IsActive reports whether the named feature is active.
// Unknown names are simply not active.
func (r *Registry) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.features[name]
	return ok && e.status == StatusActive
}

// Use returns the stored implementation when the feature is active,
// otherwise the caller's fallback. This is the sole read path consumers
// should use; branching on IsActive and reaching into storage separately
// would scatter the degrade decision.
func (r *Registry) Use(name string, fallback any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.features[name]
	if !ok || e.status != StatusActive {
		return fallback
	}
	return e.impl
}

// Use returns the typed implementation of an active feature, or fallback
// when the feature is missing, degraded, or stored with a different type.
func Use[T any](r *Registry, name string, fallback T) T {
	impl := r.Use(name, nil)
	if impl == nil {
		return fallback
	}
	typed, ok := impl.(T)
	if !ok {
		return fallback
	}
	return typed
}

// Status returns the named feature's status; StatusUnknown if never loaded.
func (r *Registry) Status(name string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.features[name]; ok {
		return e.status
	}
	return StatusUnknown
}

// Reason returns the degradation reason, or empty when not degraded.
func (r *Registry) Reason(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.features[name]; ok {
		return e.reason
	}
	return ""
}

// Snapshot returns every entry in the registry.
func (r *Registry) Snapshot() []Feature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Feature, 0, len(r.features))
	for name, e := range r.features {
		out = append(out, Feature{Name: name, Status: e.status, Reason: e.reason})
	}
	return out
}

// Health reports the registry as a service health document: active features
// are up, degraded features degrade the overall status.
func (r *Registry) Health(service, version string) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(service, version)
	for _, f := range r.Snapshot() {
		status := observability.HealthStatusUp
		if f.Status == StatusDegraded {
			status = observability.HealthStatusDegraded
		}
		sh.AddComponent(observability.Health{
			Name:    f.Name,
			Status:  status,
			Message: f.Reason,
		})
	}
	return sh
}
