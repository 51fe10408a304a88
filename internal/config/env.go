package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome              = "KEYWARD_HOME"
	EnvOutputFormat      = "KEYWARD_OUTPUT_FORMAT"
	EnvVerbose           = "KEYWARD_VERBOSE"
	EnvLogLevel          = "KEYWARD_LOG_LEVEL"
	EnvNoColor           = "NO_COLOR"
	EnvSessionHours      = "KEYWARD_SESSION_HOURS"
	EnvCredentialTTL     = "KEYWARD_CREDENTIAL_TTL_HOURS"
	EnvStrictDeviceCheck = "KEYWARD_STRICT_DEVICE_CHECK"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvSessionHours); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.Session.DurationHours = hours
		}
	}

	if v := os.Getenv(EnvCredentialTTL); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.Credential.TTLHours = hours
		}
	}

	if v := os.Getenv(EnvStrictDeviceCheck); v != "" {
		cfg.Session.StrictDeviceCheck = parseBool(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeLabel cleans a user-provided wallet label, keeping only
// characters safe to embed in keystore file names.
func SanitizeLabel(label string) string {
	return sanitize.PathName(strings.TrimSpace(label))
}
