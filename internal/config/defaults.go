package config

// Default policy values. The session numbers mirror the web wallet this
// tool pairs with: day-long sessions refreshed within two hours of
// expiry, with a half-hour idle warning.
const (
	DefaultCredentialTTLHours      = 240 // 10 days
	DefaultSessionDurationHours    = 24
	DefaultRefreshThresholdMinutes = 120
	DefaultInactivityWarnMinutes   = 30
	DefaultInactivityStaleMinutes  = 120
	DefaultMaxPasswordAttempts     = 3
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.keyward",
		Credential: CredentialConfig{
			TTLHours: DefaultCredentialTTLHours,
		},
		Session: SessionConfig{
			DurationHours:           DefaultSessionDurationHours,
			RefreshThresholdMinutes: DefaultRefreshThresholdMinutes,
			InactivityWarnMinutes:   DefaultInactivityWarnMinutes,
			InactivityStaleMinutes:  DefaultInactivityStaleMinutes,
			StrictDeviceCheck:       false,
		},
		Auth: AuthConfig{
			MaxPasswordAttempts: DefaultMaxPasswordAttempts,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.keyward/keyward.log",
		},
	}
}
