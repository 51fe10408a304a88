// Package credential holds a decrypted signing keypair in memory for a
// bounded window and produces signatures from it. The keypair is never
// persisted, logged, or serialized; when the window lapses the material
// is wiped and the password must be entered again.
package credential

import (
	"sync"
	"time"

	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/keywardcrypto"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// DefaultTTL is the default credential lifetime. A long window keeps a
// low-risk client wallet from prompting for the password on every action.
const DefaultTTL = 10 * 24 * time.Hour

// Result is the outcome of a signing call: the signature plus a
// correlation id pairing the request with its asynchronous result.
// The id is unique per cache lifetime and never zero.
type Result struct {
	ID        uint64 `json:"id"`
	Signature []byte `json:"signature"`
}

// Cache holds at most one decrypted keypair bound to an address.
type Cache struct {
	mu        sync.Mutex
	store     keystore.Store
	keypair   *keys.Keypair
	boundAddr string
	expiresAt time.Time
	idCounter uint32

	now func() time.Time
}

// NewCache creates a credential cache backed by the given keystore.
func NewCache(store keystore.Store) *Cache {
	return &Cache{
		store: store,
		now:   time.Now,
	}
}

// Activate decrypts the keystore record for address (or the currently
// selected address when address is empty), derives the signing keypair,
// and caches it until now+ttl.
//
// Fails with ErrNoKeystore when no record exists, ErrInvalidPassword when
// decryption fails, and ErrAddressMismatch when the derived address does
// not equal the record's declared address (keystore corruption or
// tampering). On failure any previously cached keypair is left untouched.
func (c *Cache) Activate(password []byte, address string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var (
		record *keystore.Record
		err    error
	)
	if address == "" {
		record, err = c.store.LoadCurrent()
	} else {
		record, err = c.store.Load(address)
	}
	if err != nil {
		return err
	}

	mnemonic, err := keystore.Decrypt(password, record)
	if err != nil {
		return err
	}
	defer keywardcrypto.ZeroBytes(mnemonic)

	kp, err := keys.FromMnemonic(string(mnemonic))
	if err != nil {
		return kwerr.Wrap(err, "deriving keypair")
	}

	if kp.Address() != record.Address {
		kp.Destroy()
		return kwerr.WithDetails(kwerr.ErrAddressMismatch, map[string]string{
			"keystore": record.Address,
			"derived":  kp.Address(),
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	c.keypair = kp
	c.boundAddr = record.Address
	c.expiresAt = c.now().Add(ttl)

	return nil
}

// IsActive reports whether a non-expired keypair is cached. An expired
// keypair is wiped before returning.
func (c *Cache) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

// BoundAddress returns the address the cached keypair belongs to, or ""
// when the cache is cold.
func (c *Cache) BoundAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.activeLocked() {
		return ""
	}
	return c.boundAddr
}

// CurrentAddress returns the keystore's currently selected address, or
// "" when none is selected. Callers resolving an empty address request
// use it to detect a bind left stale by a wallet switch.
func (c *Cache) CurrentAddress() string {
	return c.store.CurrentAddress()
}

// ExpiresAt returns the credential expiry, or the zero time when cold.
func (c *Cache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.activeLocked() {
		return time.Time{}
	}
	return c.expiresAt
}

// Sign signs a payload with the cached keypair. Fails with
// ErrSessionInactive when the cache is cold or expired.
func (c *Cache) Sign(payload []byte) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked() {
		return nil, kwerr.ErrSessionInactive
	}

	sig, err := c.keypair.Sign(payload)
	if err != nil {
		return nil, kwerr.Wrap(err, "signing payload")
	}

	return &Result{ID: uint64(c.nextIDLocked()), Signature: sig}, nil
}

// Extend resets the expiry to now+ttl if the cache is active; a no-op
// otherwise.
func (c *Cache) Extend(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked() {
		return
	}
	c.expiresAt = c.now().Add(ttl)
}

// Clear wipes the cached keypair. Idempotent.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// activeLocked checks the invariant: keypair exists iff now < expiresAt.
// An expired keypair is cleared before reporting inactive.
func (c *Cache) activeLocked() bool {
	if c.keypair == nil {
		return false
	}
	if !c.now().Before(c.expiresAt) {
		c.clearLocked()
		return false
	}
	return true
}

func (c *Cache) clearLocked() {
	if c.keypair != nil {
		c.keypair.Destroy()
		c.keypair = nil
	}
	c.boundAddr = ""
	c.expiresAt = time.Time{}
}

// nextIDLocked returns the next correlation id. The counter wraps around
// but skips zero, which the signer contract reserves as invalid.
func (c *Cache) nextIDLocked() uint32 {
	c.idCounter++
	if c.idCounter == 0 {
		c.idCounter++
	}
	return c.idCounter
}
