// Package config provides configuration management for Keyward.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	kwerr "github.com/memopark/keyward/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Home       string           `yaml:"home"`
	Credential CredentialConfig `yaml:"credential"`
	Session    SessionConfig    `yaml:"session"`
	Auth       AuthConfig       `yaml:"auth"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CredentialConfig defines the in-memory credential cache settings.
type CredentialConfig struct {
	// TTLHours is how long a decrypted keypair stays cached.
	TTLHours int `yaml:"ttl_hours"`
}

// SessionConfig defines session lifecycle settings.
type SessionConfig struct {
	DurationHours           int  `yaml:"duration_hours"`
	RefreshThresholdMinutes int  `yaml:"refresh_threshold_minutes"`
	InactivityWarnMinutes   int  `yaml:"inactivity_warn_minutes"`
	InactivityStaleMinutes  int  `yaml:"inactivity_stale_minutes"`
	StrictDeviceCheck       bool `yaml:"strict_device_check"`
}

// AuthConfig defines password authentication settings.
type AuthConfig struct {
	MaxPasswordAttempts int `yaml:"max_password_attempts"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, kwerr.Wrap(kwerr.ErrConfigInvalid, "parsing %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefaults reads the config file when it exists and falls back to
// defaults (with environment overrides) otherwise.
func LoadOrDefaults(home string) (*Config, error) {
	path := Path(home)
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = Defaults()
		cfg.Home = home
	} else if err != nil {
		return nil, err
	}
	ApplyEnvironment(cfg)
	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.Credential.TTLHours <= 0 {
		return kwerr.Wrap(kwerr.ErrConfigInvalid, "credential.ttl_hours must be positive")
	}
	if c.Session.DurationHours <= 0 {
		return kwerr.Wrap(kwerr.ErrConfigInvalid, "session.duration_hours must be positive")
	}
	if c.Session.RefreshThresholdMinutes <= 0 {
		return kwerr.Wrap(kwerr.ErrConfigInvalid, "session.refresh_threshold_minutes must be positive")
	}
	if time.Duration(c.Session.RefreshThresholdMinutes)*time.Minute >= c.SessionDuration() {
		return kwerr.Wrap(kwerr.ErrConfigInvalid, "session.refresh_threshold_minutes must be below session.duration_hours")
	}
	if c.Auth.MaxPasswordAttempts <= 0 {
		return kwerr.Wrap(kwerr.ErrConfigInvalid, "auth.max_password_attempts must be positive")
	}
	return nil
}

// CredentialTTL returns the credential cache TTL.
func (c *Config) CredentialTTL() time.Duration {
	return time.Duration(c.Credential.TTLHours) * time.Hour
}

// SessionDuration returns the session lifetime.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.Session.DurationHours) * time.Hour
}

// RefreshThreshold returns how close to expiry a proactive session
// refresh fires.
func (c *Config) RefreshThreshold() time.Duration {
	return time.Duration(c.Session.RefreshThresholdMinutes) * time.Minute
}

// InactivityWarn returns the idle span after which the activity monitor
// warns.
func (c *Config) InactivityWarn() time.Duration {
	return time.Duration(c.Session.InactivityWarnMinutes) * time.Minute
}

// InactivityStale returns the idle span after which a session is flagged
// stale.
func (c *Config) InactivityStale() time.Duration {
	return time.Duration(c.Session.InactivityStaleMinutes) * time.Minute
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default keyward home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".keyward"
	}
	return filepath.Join(home, ".keyward")
}

// ExpandHome expands a leading "~/" in a path.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
