package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// validate is the shared validator instance for policy structs.
var validate = validator.New()

// EnvPrefix is the prefix for environment variable overrides
// (e.g. FAULTKIT_POLICIES_BILLING_TIMEOUT).
const EnvPrefix = "FAULTKIT"

// FileSystem abstracts file probing so loader behavior is testable.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

// Exists reports whether path exists.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads environment variables from a dotenv file.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig controls where configuration is read from.
type LoaderConfig struct {
	// ConfigFile is the YAML policy file. Empty means no file; defaults
	// and environment overrides still apply.
	ConfigFile string
	// EnvFile is an optional dotenv file preloaded before reading config.
	EnvFile string
	// FileSystem overrides file access, mainly for tests.
	FileSystem FileSystem
}

// Load reads, defaults, and validates a configuration document.
// Precedence, lowest to highest: struct defaults, YAML file, environment
// variables with the FAULTKIT_ prefix.
func Load(opts LoaderConfig) (*Config, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = RealFileSystem{}
	}

	if opts.EnvFile != "" && fs.Exists(opts.EnvFile) {
		if err := fs.LoadEnv(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if !fs.Exists(opts.ConfigFile) {
			return nil, fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
