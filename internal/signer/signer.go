// Package signer bridges the credential cache into the transaction
// signing interface consumed by the chain client. A cold cache drives an
// injected password prompt with a bounded retry budget; concurrent
// signing requests for the same address coalesce behind one prompt.
package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/memopark/keyward/internal/credential"
	"github.com/memopark/keyward/internal/keywardcrypto"
	"github.com/memopark/keyward/internal/metrics"
	"github.com/memopark/keyward/internal/session"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// DefaultMaxAttempts is the default password retry budget per
// authentication flow.
const DefaultMaxAttempts = 3

// PromptFunc collects a password from the user. attempt counts from 1 so
// the UI can show attempt feedback. Returning ErrUserCancelled aborts
// the flow; any other error is treated the same as a dismissal.
type PromptFunc func(ctx context.Context, address string, attempt, maxAttempts int) ([]byte, error)

// TxPayload is a structured transaction signing request.
type TxPayload struct {
	// Address is the signing address. Empty means the currently
	// selected wallet.
	Address string `json:"address,omitempty"`

	// Module and Method name the dispatched call, e.g. "balances" and
	// "transfer".
	Module string `json:"module"`
	Method string `json:"method"`

	// Args is the encoded call argument blob produced by the chain
	// client.
	Args []byte `json:"args,omitempty"`
}

// Adapter implements the chain client's signer contract on top of the
// credential cache and session manager.
type Adapter struct {
	cache       *credential.Cache
	sessions    *session.Manager
	prompt      PromptFunc
	log         zerolog.Logger
	maxAttempts int
	credTTL     time.Duration

	flight singleflight.Group
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMaxAttempts overrides the password retry budget.
func WithMaxAttempts(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithCredentialTTL overrides the credential cache TTL used on
// activation.
func WithCredentialTTL(ttl time.Duration) Option {
	return func(a *Adapter) {
		if ttl > 0 {
			a.credTTL = ttl
		}
	}
}

// New creates a signer adapter. prompt is required; sessions may be nil
// when no session bookkeeping is wanted (tests, one-shot tools).
func New(cache *credential.Cache, sessions *session.Manager, prompt PromptFunc, log zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		cache:       cache,
		sessions:    sessions,
		prompt:      prompt,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		credTTL:     credential.DefaultTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignPayload signs a structured transaction payload. The payload is
// serialized deterministically before signing.
func (a *Adapter) SignPayload(ctx context.Context, payload TxPayload) (*credential.Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return a.sign(ctx, payload.Address, data)
}

// SignRaw signs opaque bytes for the given address.
func (a *Adapter) SignRaw(ctx context.Context, address string, raw []byte) (*credential.Result, error) {
	return a.sign(ctx, address, raw)
}

// Update is a no-op hook kept for signer interface compatibility.
func (a *Adapter) Update() {}

func (a *Adapter) sign(ctx context.Context, address string, data []byte) (*credential.Result, error) {
	start := time.Now()

	if err := a.ensureActive(ctx, address); err != nil {
		metrics.Global.RecordSign(time.Since(start), err)
		return nil, err
	}

	result, err := a.cache.Sign(data)
	metrics.Global.RecordSign(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	a.recordActivity()
	return result, nil
}

// ensureActive makes sure the cache holds a keypair for the requested
// address, driving the password prompt when cold or bound elsewhere.
// Concurrent callers for the same address share one authentication flow.
func (a *Adapter) ensureActive(ctx context.Context, address string) error {
	if a.warmFor(address) {
		metrics.Global.RecordCacheHit()
		return nil
	}
	metrics.Global.RecordCacheMiss()

	key := address
	if key == "" {
		key = "\x00current"
	}

	ch := a.flight.DoChan(key, func() (any, error) {
		// Re-check under the flight: a previous waiter may have
		// authenticated while this call queued.
		if a.warmFor(address) {
			return nil, nil
		}
		return nil, a.authenticate(ctx, address)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// warmFor reports whether the cache is active and bound to the requested
// address. A request naming no address resolves to the keystore's
// currently selected address, so a bind left behind by a wallet switch
// is treated as cold.
func (a *Adapter) warmFor(address string) bool {
	if !a.cache.IsActive() {
		return false
	}
	if address == "" {
		address = a.cache.CurrentAddress()
	}
	return a.cache.BoundAddress() == address
}

// authenticate runs the bounded-retry password flow. The retry budget is
// strict: the attempt after the final failure is never evaluated.
func (a *Adapter) authenticate(ctx context.Context, address string) error {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		password, err := a.prompt(ctx, address, attempt, a.maxAttempts)
		if err != nil {
			if kwerr.Is(err, kwerr.ErrUserCancelled) {
				return err
			}
			return kwerr.Wrap(kwerr.ErrUserCancelled, "password prompt failed")
		}

		err = a.cache.Activate(password, address, a.credTTL)
		keywardcrypto.ZeroBytes(password)
		metrics.Global.RecordAuthAttempt(err != nil)

		if err == nil {
			a.bindSession()
			return nil
		}

		if !kwerr.Is(err, kwerr.ErrInvalidPassword) {
			// NoKeystore, AddressMismatch and friends are not fixable
			// by retyping the password.
			return err
		}

		a.log.Debug().Int("attempt", attempt).Int("max", a.maxAttempts).Msg("invalid password")
	}

	return kwerr.ErrAuthExhausted
}

// bindSession records session metadata after a successful activation.
func (a *Adapter) bindSession() {
	if a.sessions == nil {
		return
	}

	bound := a.cache.BoundAddress()
	current := a.sessions.Current()

	if current == nil || current.Address != bound {
		if _, err := a.sessions.CreateSession(bound); err != nil {
			a.log.Error().Err(err).Msg("creating session after activation")
		}
		return
	}

	if err := a.sessions.UpdateActivity(); err != nil {
		a.log.Error().Err(err).Msg("updating session activity")
	}
	if a.sessions.ShouldRefresh() {
		if _, err := a.sessions.RefreshSession(); err != nil {
			a.log.Error().Err(err).Msg("refreshing session after activation")
		}
	}
}

// recordActivity pings the session manager after a served signing call.
func (a *Adapter) recordActivity() {
	if a.sessions == nil {
		return
	}
	if err := a.sessions.UpdateActivity(); err != nil {
		a.log.Debug().Err(err).Msg("updating session activity")
	}
}
