// Package session manages the persisted, non-secret session record for a
// wallet: identity, expiry, device binding, and activity. It is
// independent of whether a decrypted keypair is currently cached; a live
// session record with a cold credential cache is a normal state.
package session

import (
	"time"
)

// Default session policy values. All of these are configurable; see
// Config.
const (
	// DefaultSessionDuration is the default session lifetime.
	DefaultSessionDuration = 24 * time.Hour

	// DefaultRefreshThreshold triggers proactive refresh when remaining
	// time-to-expiry drops below it.
	DefaultRefreshThreshold = 2 * time.Hour

	// DefaultInactivityWarn is the inactivity span after which the
	// session is flagged as idle.
	DefaultInactivityWarn = 30 * time.Minute

	// DefaultInactivityStale is the inactivity span after which the
	// session is flagged stale by anomaly detection.
	DefaultInactivityStale = 2 * time.Hour
)

// Record is the persisted session state. It never contains key material
// or the decrypted mnemonic.
type Record struct {
	// SessionID is an opaque identifier, unique per session instantiation.
	SessionID string `json:"session_id"`

	// Address is the wallet address the session is bound to.
	Address string `json:"address"`

	// ExpiresAt is the absolute session expiry.
	ExpiresAt time.Time `json:"expires_at"`

	// DeviceFingerprint is a stable hash of device characteristics
	// captured at session creation.
	DeviceFingerprint string `json:"device_fingerprint"`

	// LastActivity is updated on observed user/application activity.
	LastActivity time.Time `json:"last_activity"`

	// RefreshToken allows session extension bookkeeping without
	// re-deriving the wallet secret.
	RefreshToken string `json:"refresh_token"`
}

// IsExpired reports whether the record has expired at the given time.
func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TTL returns the remaining time until expiry at the given time.
// Returns 0 if already expired.
func (r *Record) TTL(now time.Time) time.Duration {
	remaining := r.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// clone returns a copy so callers cannot mutate manager state.
func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// AnomalyReason identifies why a session was flagged.
type AnomalyReason string

// Anomaly reasons.
const (
	// ReasonDeviceMismatch means the stored device fingerprint differs
	// from the one recomputed at load time.
	ReasonDeviceMismatch AnomalyReason = "device fingerprint mismatch"

	// ReasonStale means the session saw no activity for longer than the
	// stale threshold.
	ReasonStale AnomalyReason = "prolonged inactivity"
)

// Anomaly is the structured result of anomaly detection. Findings are
// warnings surfaced to the caller, not errors; the default policy never
// auto-revokes on a flag because a false positive would lock the user out.
type Anomaly struct {
	IsAnomalous bool          `json:"is_anomalous"`
	Reason      AnomalyReason `json:"reason,omitempty"`
}
