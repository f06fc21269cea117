package logger

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected format 'json', got %q", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{"valid json", Config{Level: "info", Format: "json"}, false, ""},
		{"valid console", Config{Level: "debug", Format: "console"}, false, ""},
		{"bad level", Config{Level: "loud", Format: "json"}, true, "logging.level"},
		{"bad format", Config{Level: "info", Format: "xml"}, true, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("svc").WithComponent("circuit-breaker")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "svc" {
		t.Errorf("expected service preserved, got %q", l.service)
	}
}

func TestFields(t *testing.T) {
	m := Fields(FieldAttempt, 2, FieldBackoff, int64(200))
	if m[FieldAttempt] != 2 {
		t.Errorf("expected attempt=2, got %v", m[FieldAttempt])
	}
	if m[FieldBackoff] != int64(200) {
		t.Errorf("expected backoff=200, got %v", m[FieldBackoff])
	}
}

func TestFieldsOddArguments(t *testing.T) {
	m := Fields("key", "value", "dangling")
	if len(m) != 1 {
		t.Errorf("expected dangling key dropped, got %v", m)
	}
}

func TestFieldsNonStringKey(t *testing.T) {
	m := Fields(42, "value")
	if len(m) != 0 {
		t.Errorf("expected non-string key skipped, got %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("resolve", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected duration_ms=1500, got %v", m[FieldDuration])
	}
	if m[FieldOperation] != "resolve" {
		t.Errorf("expected operation=resolve, got %v", m[FieldOperation])
	}
}

func TestRegistryGetFallsBackToGlobal(t *testing.T) {
	l := Get("unregistered-component")
	if l == nil {
		t.Fatal("expected non-nil logger for unregistered name")
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	custom := NewDefault("custom")
	Register("retry", custom)
	if got := Get("retry"); got != custom {
		t.Error("expected registered logger returned")
	}
}
