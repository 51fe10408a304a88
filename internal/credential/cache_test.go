package credential

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/keywardcrypto"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

const (
	testMnemonic  = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	otherMnemonic = "letter advice cage absurd amount doctor acoustic avoid letter advice cage above"
	testPassword  = "correct horse battery" // gitleaks:allow
)

func TestMain(m *testing.M) {
	keywardcrypto.SetScryptWorkFactor(10) // Fast for tests
	os.Exit(m.Run())
}

// fakeClock provides a controllable time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T) (*Cache, *keystore.FileStore, *fakeClock) {
	t.Helper()

	store := keystore.NewFileStore(t.TempDir())
	record, err := keystore.Create(testMnemonic, "main", []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, store.Save(record))

	clock := newFakeClock()
	cache := NewCache(store)
	cache.now = clock.Now
	return cache, store, clock
}

func TestActivate_Success(t *testing.T) {
	t.Parallel()

	cache, _, clock := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))

	assert.True(t, cache.IsActive())
	assert.NotEmpty(t, cache.BoundAddress())
	assert.Equal(t, clock.Now().Add(time.Hour), cache.ExpiresAt())
}

func TestActivate_WrongPassword(t *testing.T) {
	t.Parallel()

	cache, _, _ := newTestCache(t)
	err := cache.Activate([]byte("wrong"), "", time.Hour)
	require.ErrorIs(t, err, kwerr.ErrInvalidPassword)
	assert.False(t, cache.IsActive())
}

func TestActivate_NoKeystore(t *testing.T) {
	t.Parallel()

	cache := NewCache(keystore.NewFileStore(t.TempDir()))
	err := cache.Activate([]byte(testPassword), "", time.Hour)
	require.ErrorIs(t, err, kwerr.ErrNoKeystore)
}

func TestActivate_FailureLeavesExistingCacheUntouched(t *testing.T) {
	t.Parallel()

	cache, store, _ := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))
	boundBefore := cache.BoundAddress()

	// Add a second wallet and fail to activate it with a bad password.
	other, err := keystore.Create(otherMnemonic, "other", []byte("other password"))
	require.NoError(t, err)
	require.NoError(t, store.Save(other))

	err = cache.Activate([]byte("wrong"), other.Address, time.Hour)
	require.ErrorIs(t, err, kwerr.ErrInvalidPassword)

	assert.True(t, cache.IsActive())
	assert.Equal(t, boundBefore, cache.BoundAddress())
}

func TestActivate_AddressMismatch(t *testing.T) {
	t.Parallel()

	store := keystore.NewFileStore(t.TempDir())
	record, err := keystore.Create(testMnemonic, "main", []byte(testPassword))
	require.NoError(t, err)

	// Corrupt the declared address: swap in the address of another wallet.
	otherKp, err := keys.FromMnemonic(otherMnemonic)
	require.NoError(t, err)
	record.Address = otherKp.Address()
	otherKp.Destroy()
	require.NoError(t, store.Save(record))

	cache := NewCache(store)
	err = cache.Activate([]byte(testPassword), "", time.Hour)
	require.ErrorIs(t, err, kwerr.ErrAddressMismatch)
	assert.False(t, cache.IsActive())
}

func TestIsActive_ExpiryClearsState(t *testing.T) {
	t.Parallel()

	cache, _, clock := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))
	require.True(t, cache.IsActive())

	clock.Advance(59 * time.Minute)
	assert.True(t, cache.IsActive())

	clock.Advance(2 * time.Minute)
	assert.False(t, cache.IsActive())
	assert.Empty(t, cache.BoundAddress())

	_, err := cache.Sign([]byte("payload"))
	require.ErrorIs(t, err, kwerr.ErrSessionInactive)
}

func TestSign(t *testing.T) {
	t.Parallel()

	cache, _, _ := newTestCache(t)

	t.Run("inactive cache", func(t *testing.T) {
		_, err := cache.Sign([]byte("payload"))
		require.ErrorIs(t, err, kwerr.ErrSessionInactive)
	})

	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))

	t.Run("signature verifies", func(t *testing.T) {
		payload := []byte("balances.transfer 5F3sa2TJc 1000")
		result, err := cache.Sign(payload)
		require.NoError(t, err)
		require.NotZero(t, result.ID)

		kp, kpErr := keys.FromMnemonic(testMnemonic)
		require.NoError(t, kpErr)
		defer kp.Destroy()
		assert.True(t, kp.Verify(payload, result.Signature))
	})

	t.Run("correlation ids distinct and non-zero", func(t *testing.T) {
		seen := make(map[uint64]bool)
		for i := 0; i < 100; i++ {
			result, err := cache.Sign([]byte("payload"))
			require.NoError(t, err)
			require.NotZero(t, result.ID)
			require.False(t, seen[result.ID], "duplicate correlation id %d", result.ID)
			seen[result.ID] = true
		}
	})
}

func TestCorrelationID_WraparoundSkipsZero(t *testing.T) {
	t.Parallel()

	cache, _, _ := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))

	cache.mu.Lock()
	cache.idCounter = math.MaxUint32 - 1
	cache.mu.Unlock()

	result, err := cache.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint32), result.ID)

	result, err = cache.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.ID, "counter must wrap past zero")
}

func TestExtend(t *testing.T) {
	t.Parallel()

	cache, _, clock := newTestCache(t)

	// No-op when inactive.
	cache.Extend(time.Hour)
	assert.False(t, cache.IsActive())

	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))
	clock.Advance(30 * time.Minute)
	cache.Extend(time.Hour)
	assert.Equal(t, clock.Now().Add(time.Hour), cache.ExpiresAt())
}

func TestClear_Idempotent(t *testing.T) {
	t.Parallel()

	cache, _, _ := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", time.Hour))

	cache.Clear()
	assert.False(t, cache.IsActive())

	cache.Clear() // second clear is a no-op
	assert.False(t, cache.IsActive())
}

func TestActivate_DefaultTTL(t *testing.T) {
	t.Parallel()

	cache, _, clock := newTestCache(t)
	require.NoError(t, cache.Activate([]byte(testPassword), "", 0))
	assert.Equal(t, clock.Now().Add(DefaultTTL), cache.ExpiresAt())
}
