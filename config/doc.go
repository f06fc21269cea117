// Package config loads and validates resilience policy configuration.
//
// Policies are declared per dependency in YAML and can be overridden with
// FAULTKIT_-prefixed environment variables; an optional .env file is
// preloaded first. Each policy bridges directly into the resilience
// package's config types, so wiring a guarded dependency is:
//
//	cfg, err := config.Load(config.LoaderConfig{ConfigFile: "faultkit.yml"})
//	exec := cfg.Policies["billing"].Executor("billing")
package config
