package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/memopark/keyward/internal/events"
	"github.com/memopark/keyward/internal/keywardcrypto"
	"github.com/memopark/keyward/internal/metrics"
)

// refreshTokenLength is the length of the random refresh token in bytes.
const refreshTokenLength = 32

// Config holds session policy knobs. Zero values take the package
// defaults.
type Config struct {
	// SessionDuration is the lifetime of a new or refreshed session.
	SessionDuration time.Duration

	// RefreshThreshold is how close to expiry a proactive refresh fires.
	RefreshThreshold time.Duration

	// InactivityWarn is the idle span after which the activity monitor
	// warns.
	InactivityWarn time.Duration

	// InactivityStale is the idle span after which anomaly detection
	// flags the session stale.
	InactivityStale time.Duration

	// StrictDeviceCheck forces re-authentication on a device fingerprint
	// mismatch instead of the default warn-only policy.
	StrictDeviceCheck bool
}

func (c *Config) applyDefaults() {
	if c.SessionDuration <= 0 {
		c.SessionDuration = DefaultSessionDuration
	}
	if c.RefreshThreshold <= 0 {
		c.RefreshThreshold = DefaultRefreshThreshold
	}
	if c.InactivityWarn <= 0 {
		c.InactivityWarn = DefaultInactivityWarn
	}
	if c.InactivityStale <= 0 {
		c.InactivityStale = DefaultInactivityStale
	}
}

// Manager owns the session record lifecycle: persistence, scheduled
// refresh, activity monitoring, and anomaly detection.
type Manager struct {
	mu    sync.Mutex
	store Store
	pub   events.Publisher
	log   zerolog.Logger
	cfg   Config

	current       *Record
	refreshTimer  *time.Timer
	activityTimer *time.Timer

	// Injectable for tests.
	now         func() time.Time
	fingerprint func() string
}

// NewManager creates a session manager. pub may be nil, in which case
// events are discarded.
func NewManager(store Store, pub events.Publisher, log zerolog.Logger, cfg Config) *Manager {
	cfg.applyDefaults()
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Manager{
		store:       store,
		pub:         pub,
		log:         log,
		cfg:         cfg,
		now:         time.Now,
		fingerprint: DeviceFingerprint,
	}
}

// Init loads a previously persisted session. An expired record is wiped
// and (nil, Anomaly{}, nil) returned. Anomaly findings are returned as a
// structured result, not an error: the caller decides how to surface
// them. With StrictDeviceCheck, a fingerprint mismatch clears the
// session instead.
func (m *Manager) Init() (*Record, Anomaly, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.store.Load()
	if err != nil {
		return nil, Anomaly{}, err
	}
	if record == nil {
		return nil, Anomaly{}, nil
	}

	now := m.now()
	if record.IsExpired(now) {
		m.log.Debug().Str("session_id", record.SessionID).Msg("persisted session expired, clearing")
		m.clearLocked()
		return nil, Anomaly{}, nil
	}

	anomaly := m.detectAnomalousLocked(record, now)
	if anomaly.IsAnomalous {
		m.log.Warn().
			Str("session_id", record.SessionID).
			Str("reason", string(anomaly.Reason)).
			Msg("anomalous session detected")

		if m.cfg.StrictDeviceCheck && anomaly.Reason == ReasonDeviceMismatch {
			m.clearLocked()
			return nil, anomaly, nil
		}
	}

	m.current = record
	m.current.LastActivity = now
	if err := m.store.Save(m.current); err != nil {
		return nil, anomaly, fmt.Errorf("persisting session activity: %w", err)
	}

	m.scheduleLocked()
	return m.current.clone(), anomaly, nil
}

// CreateSession builds and persists a fresh session bound to address,
// replacing any existing record.
func (m *Manager) CreateSession(address string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	record := &Record{
		SessionID:         uuid.New().String(),
		Address:           address,
		ExpiresAt:         now.Add(m.cfg.SessionDuration),
		DeviceFingerprint: m.fingerprint(),
		LastActivity:      now,
		RefreshToken:      token,
	}

	if err := m.store.Save(record); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	m.current = record
	m.scheduleLocked()
	m.publish(events.KindSessionCreated)
	metrics.Global.RecordSessionCreated()

	return record.clone(), nil
}

// RefreshSession extends the current session's expiry from now and
// rotates the refresh token. Returns (nil, nil) when no session exists;
// callers must treat that as "session lost, re-authenticate."
func (m *Manager) RefreshSession() (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked()
}

func (m *Manager) refreshLocked() (*Record, error) {
	if m.current == nil {
		return nil, nil
	}

	token, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	m.current.ExpiresAt = now.Add(m.cfg.SessionDuration)
	m.current.LastActivity = now
	m.current.RefreshToken = token

	if err := m.store.Save(m.current); err != nil {
		return nil, fmt.Errorf("persisting refreshed session: %w", err)
	}

	m.scheduleLocked()
	m.publish(events.KindSessionRefreshed)
	metrics.Global.RecordSessionRefreshed()

	return m.current.clone(), nil
}

// ShouldRefresh reports whether the remaining time-to-expiry is at or
// below the refresh threshold.
func (m *Manager) ShouldRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}
	return m.current.TTL(m.now()) <= m.cfg.RefreshThreshold
}

// Current returns the current session record, or nil. An expired record
// is cleared on read.
func (m *Manager) Current() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	if m.current.IsExpired(m.now()) {
		m.clearLocked()
		return nil
	}
	return m.current.clone()
}

// UpdateActivity stamps the last-activity time and re-persists.
func (m *Manager) UpdateActivity() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	m.current.LastActivity = m.now()
	if err := m.store.Save(m.current); err != nil {
		return fmt.Errorf("persisting session activity: %w", err)
	}

	m.scheduleLocked()
	return nil
}

// ClearSession wipes the persisted record and cancels both timers.
func (m *Manager) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	had := m.current != nil
	m.clearLocked()
	if had {
		m.publish(events.KindSessionCleared)
	}
	return nil
}

// Close cancels the timers without touching persisted state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
}

// detectAnomalousLocked compares the stored device fingerprint against a
// freshly computed one and checks for prolonged inactivity.
func (m *Manager) detectAnomalousLocked(record *Record, now time.Time) Anomaly {
	if record.DeviceFingerprint != "" && record.DeviceFingerprint != m.fingerprint() {
		return Anomaly{IsAnomalous: true, Reason: ReasonDeviceMismatch}
	}

	if !record.LastActivity.IsZero() && now.Sub(record.LastActivity) > m.cfg.InactivityStale {
		return Anomaly{IsAnomalous: true, Reason: ReasonStale}
	}

	return Anomaly{}
}

func (m *Manager) clearLocked() {
	m.stopTimersLocked()
	m.current = nil
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("clearing session store")
	}
}

// scheduleLocked cancels and reschedules both timers from the current
// record. Must be called after every record mutation.
func (m *Manager) scheduleLocked() {
	m.stopTimersLocked()

	if m.current == nil {
		return
	}

	sessionID := m.current.SessionID
	now := m.now()

	if untilRefresh := m.current.ExpiresAt.Sub(now) - m.cfg.RefreshThreshold; untilRefresh > 0 {
		m.refreshTimer = time.AfterFunc(untilRefresh, func() {
			m.onRefreshTick(sessionID)
		})
	}

	if untilIdle := m.cfg.InactivityWarn - now.Sub(m.current.LastActivity); untilIdle > 0 {
		m.activityTimer = time.AfterFunc(untilIdle, func() {
			m.onActivityTick(sessionID)
		})
	}
}

func (m *Manager) stopTimersLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	if m.activityTimer != nil {
		m.activityTimer.Stop()
		m.activityTimer = nil
	}
}

// onRefreshTick fires near expiry. A tick against a session that has
// since been cleared or replaced is a benign race and handled as a
// logged no-op.
func (m *Manager) onRefreshTick(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.SessionID != sessionID {
		m.log.Debug().Str("session_id", sessionID).Msg("refresh tick for disposed session")
		return
	}

	if _, err := m.refreshLocked(); err != nil {
		m.log.Error().Err(err).Str("session_id", sessionID).Msg("scheduled session refresh failed")
	}
}

// onActivityTick re-evaluates staleness and warns; it never revokes.
func (m *Manager) onActivityTick(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.SessionID != sessionID {
		m.log.Debug().Str("session_id", sessionID).Msg("activity tick for disposed session")
		return
	}

	idle := m.now().Sub(m.current.LastActivity)
	if idle >= m.cfg.InactivityWarn {
		m.log.Warn().
			Str("session_id", sessionID).
			Dur("idle", idle).
			Msg("session idle, consider re-authenticating")
	}
}

// publish broadcasts a session change. Fire-and-forget: failures are
// logged, never propagated.
func (m *Manager) publish(kind events.Kind) {
	event := events.SessionEvent{Kind: kind, At: m.now()}
	if m.current != nil {
		event.SessionID = m.current.SessionID
		event.Address = m.current.Address
	}

	if err := m.pub.PublishSessionChanged(context.Background(), event); err != nil {
		m.log.Debug().Err(err).Str("kind", string(kind)).Msg("publishing session event")
	}
}

// newRefreshToken generates an opaque session extension token.
func newRefreshToken() (string, error) {
	raw, err := keywardcrypto.RandomBytes(refreshTokenLength)
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
