// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Signing metrics
	signTotal        atomic.Int64
	signErrors       atomic.Int64
	signLatencyNanos atomic.Int64

	// Authentication metrics
	authAttempts atomic.Int64
	authFailures atomic.Int64

	// Credential cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// Session metrics
	sessionsCreated   atomic.Int64
	sessionsRefreshed atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordSign records a signing request with its duration and outcome.
func (m *Metrics) RecordSign(duration time.Duration, err error) {
	m.signTotal.Add(1)
	m.signLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.signErrors.Add(1)
	}
}

// RecordAuthAttempt records one password attempt and whether it failed.
func (m *Metrics) RecordAuthAttempt(failed bool) {
	m.authAttempts.Add(1)
	if failed {
		m.authFailures.Add(1)
	}
}

// RecordCacheHit records a signing request served by a warm credential.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a signing request that had to authenticate first.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordSessionCreated records a new session.
func (m *Metrics) RecordSessionCreated() {
	m.sessionsCreated.Add(1)
}

// RecordSessionRefreshed records a session extension.
func (m *Metrics) RecordSessionRefreshed() {
	m.sessionsRefreshed.Add(1)
}

// Snapshot returns a point-in-time copy of all metrics.
type Snapshot struct {
	SignTotal         int64
	SignErrors        int64
	SignLatencyNanos  int64
	AuthAttempts      int64
	AuthFailures      int64
	CacheHits         int64
	CacheMisses       int64
	SessionsCreated   int64
	SessionsRefreshed int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SignTotal:         m.signTotal.Load(),
		SignErrors:        m.signErrors.Load(),
		SignLatencyNanos:  m.signLatencyNanos.Load(),
		AuthAttempts:      m.authAttempts.Load(),
		AuthFailures:      m.authFailures.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
		SessionsCreated:   m.sessionsCreated.Load(),
		SessionsRefreshed: m.sessionsRefreshed.Load(),
	}
}

// SignLatencyAvgMs returns the average signing latency in milliseconds.
// Returns 0 if no signing requests have been served.
func (m *Metrics) SignLatencyAvgMs() float64 {
	calls := m.signTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.signLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// CacheHitRate returns the credential cache hit rate as a percentage (0-100).
// Returns 0 if no signing requests have occurred.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.signTotal.Store(0)
	m.signErrors.Store(0)
	m.signLatencyNanos.Store(0)
	m.authAttempts.Store(0)
	m.authFailures.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.sessionsCreated.Store(0)
	m.sessionsRefreshed.Store(0)
}
