package config

import (
	"fmt"
	"time"

	"github.com/kbukum/faultkit/logger"
	"github.com/kbukum/faultkit/resilience"
)

// Config is the root of a faultkit configuration document.
type Config struct {
	Service  ServiceConfig     `yaml:"service" mapstructure:"service"`
	Logging  logger.Config     `yaml:"logging" mapstructure:"logging"`
	Policies map[string]Policy `yaml:"policies" mapstructure:"policies" validate:"dive"`
}

// ServiceConfig identifies the consuming service.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to the service configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate validates the service configuration.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("service.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	for _, v := range validEnvs {
		if c.Environment == v {
			return nil
		}
	}
	return fmt.Errorf("service.environment must be one of [development, staging, production] (got: %s)", c.Environment)
}

// Policy is the resilience policy for one protected dependency. Nil
// sub-policies leave the corresponding pattern unconfigured.
type Policy struct {
	Retry          *RetryPolicy     `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *BreakerPolicy   `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Timeout        time.Duration    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Bulkhead       *BulkheadPolicy  `yaml:"bulkhead" mapstructure:"bulkhead"`
	RateLimit      *RateLimitPolicy `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RetryPolicy configures retries for a dependency.
type RetryPolicy struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"omitempty,gte=1"`
	Jitter         float64       `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`
}

// ApplyDefaults applies default values to the retry policy.
func (p *RetryPolicy) ApplyDefaults() {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff == 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = 10 * time.Second
	}
	if p.BackoffFactor == 0 {
		p.BackoffFactor = 2.0
	}
}

// RetryConfig bridges the policy into the resilience package.
func (p RetryPolicy) RetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    p.MaxAttempts,
		InitialBackoff: p.InitialBackoff,
		MaxBackoff:     p.MaxBackoff,
		BackoffFactor:  p.BackoffFactor,
		Jitter:         p.Jitter,
		RetryIf:        resilience.DefaultRetryIf,
	}
}

// BreakerPolicy configures the circuit breaker for a dependency.
type BreakerPolicy struct {
	FailureThreshold  int           `yaml:"failure_threshold" mapstructure:"failure_threshold" validate:"gte=1"`
	ResetTimeout      time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout" validate:"gte=0"`
	HalfOpenMaxProbes int           `yaml:"half_open_max_probes" mapstructure:"half_open_max_probes" validate:"gte=0"`
}

// ApplyDefaults applies default values to the breaker policy.
func (p *BreakerPolicy) ApplyDefaults() {
	if p.FailureThreshold == 0 {
		p.FailureThreshold = 5
	}
	if p.ResetTimeout == 0 {
		p.ResetTimeout = 30 * time.Second
	}
	if p.HalfOpenMaxProbes == 0 {
		p.HalfOpenMaxProbes = 1
	}
}

// BreakerConfig bridges the policy into the resilience package.
func (p BreakerPolicy) BreakerConfig(name string) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:              name,
		FailureThreshold:  p.FailureThreshold,
		ResetTimeout:      p.ResetTimeout,
		HalfOpenMaxProbes: p.HalfOpenMaxProbes,
	}
}

// BulkheadPolicy configures the bulkhead for a dependency.
type BulkheadPolicy struct {
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=1"`
	MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`
}

// BulkheadConfig bridges the policy into the resilience package.
func (p BulkheadPolicy) BulkheadConfig(name string) resilience.BulkheadConfig {
	return resilience.BulkheadConfig{
		Name:          name,
		MaxConcurrent: p.MaxConcurrent,
		MaxWait:       p.MaxWait,
	}
}

// RateLimitPolicy configures the rate limiter for a dependency.
type RateLimitPolicy struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate" validate:"gt=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// RateLimiterConfig bridges the policy into the resilience package.
func (p RateLimitPolicy) RateLimiterConfig(name string) resilience.RateLimiterConfig {
	return resilience.RateLimiterConfig{
		Name:  name,
		Rate:  p.Rate,
		Burst: p.Burst,
	}
}

// ApplyDefaults applies defaults to every configured sub-policy.
func (p *Policy) ApplyDefaults() {
	if p.Retry != nil {
		p.Retry.ApplyDefaults()
	}
	if p.CircuitBreaker != nil {
		p.CircuitBreaker.ApplyDefaults()
	}
}

// Executor builds a ready-to-use executor from the policy. Only configured
// sub-policies contribute patterns.
func (p Policy) Executor(name string) *resilience.Executor {
	opts := make([]resilience.ExecutorOption, 0, 5)

	if p.RateLimit != nil {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(p.RateLimit.RateLimiterConfig(name))))
	}
	if p.Bulkhead != nil {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(p.Bulkhead.BulkheadConfig(name))))
	}
	if p.CircuitBreaker != nil {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(p.CircuitBreaker.BreakerConfig(name))))
	}
	if p.Retry != nil {
		opts = append(opts, resilience.WithRetry(p.Retry.RetryConfig()))
	}
	if p.Timeout > 0 {
		opts = append(opts, resilience.WithAttemptTimeout(p.Timeout))
	}

	return resilience.NewExecutor(name, opts...)
}

// ApplyDefaults applies defaults to the whole document.
func (c *Config) ApplyDefaults() {
	c.Service.ApplyDefaults()
	if c.Logging.ServiceName == "" && c.Service.Name != "" {
		c.Logging.ServiceName = c.Service.Name
	}
	c.Logging.ApplyDefaults()
	for name, policy := range c.Policies {
		policy.ApplyDefaults()
		c.Policies[name] = policy
	}
}

// Validate validates the whole document.
func (c *Config) Validate() error {
	if err := c.Service.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid policy configuration: %w", err)
	}
	return nil
}
