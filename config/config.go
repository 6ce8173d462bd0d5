package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML values can be written as "90s" or
// "10m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds all cimesh configuration.
type Config struct {
	// WorkspaceRoot is the directory environments are provisioned under.
	// Empty means the system temp directory.
	WorkspaceRoot string `toml:"workspace_root"`

	// MaxConcurrentJobs bounds the cell execution pool.
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`

	// StepTimeout bounds each individual step.
	StepTimeout Duration `toml:"step_timeout"`

	// EventsDir is the spool directory watched for trigger event files.
	EventsDir string `toml:"events_dir"`

	Log LogConfig `toml:"log"`
}

const (
	defaultMaxConcurrentJobs = 4
	defaultStepTimeout       = 10 * time.Minute
)

// MaxConcurrentJobsOrDefault returns MaxConcurrentJobs if set, otherwise 4.
func (c Config) MaxConcurrentJobsOrDefault() int {
	if c.MaxConcurrentJobs > 0 {
		return c.MaxConcurrentJobs
	}
	return defaultMaxConcurrentJobs
}

// StepTimeoutOrDefault returns StepTimeout if set, otherwise 10 minutes.
func (c Config) StepTimeoutOrDefault() time.Duration {
	if c.StepTimeout.Duration > 0 {
		return c.StepTimeout.Duration
	}
	return defaultStepTimeout
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - CIMESH_WORKSPACE_ROOT overrides workspace_root
//   - CIMESH_MAX_CONCURRENT_JOBS overrides max_concurrent_jobs
//   - CIMESH_STEP_TIMEOUT overrides step_timeout
//   - CIMESH_EVENTS_DIR overrides events_dir
//   - CIMESH_LOG_LEVEL overrides log.level
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default path for the cimesh config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/cimesh/config.toml"
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CIMESH_WORKSPACE_ROOT"); v != "" {
		cfg.WorkspaceRoot = v
	}
	if v := os.Getenv("CIMESH_MAX_CONCURRENT_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CIMESH_MAX_CONCURRENT_JOBS: %w", err)
		}
		cfg.MaxConcurrentJobs = n
	}
	if v := os.Getenv("CIMESH_STEP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CIMESH_STEP_TIMEOUT: %w", err)
		}
		cfg.StepTimeout = Duration{d}
	}
	if v := os.Getenv("CIMESH_EVENTS_DIR"); v != "" {
		cfg.EventsDir = v
	}
	if v := os.Getenv("CIMESH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Save writes cfg to the given TOML file path, creating parent directories as
// needed. Existing file contents are overwritten. Permissions on the written
// file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
