package signer

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopark/keyward/internal/credential"
	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keystore"
	"github.com/memopark/keyward/internal/keywardcrypto"
	"github.com/memopark/keyward/internal/session"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

const (
	testPassword  = "correct horse battery staple"
	otherPassword = "open sesame"
	testMnemonic  = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	otherMnemonic = "letter advice cage absurd amount doctor acoustic avoid letter advice cage above"
)

func TestMain(m *testing.M) {
	keywardcrypto.SetScryptWorkFactor(10) // Fast for tests
	os.Exit(m.Run())
}

// fixture holds a wired signer adapter over a real keystore and cache.
type fixture struct {
	adapter *Adapter
	cache   *credential.Cache
	store   *keystore.FileStore
	addr    string
	other   string
	prompts atomic.Int32
}

// newFixture stores two wallets and wires an adapter whose prompt
// answers with the given password script, one entry per attempt. The
// last entry repeats once the script runs out.
func newFixture(t *testing.T, script ...string) *fixture {
	t.Helper()

	store := keystore.NewFileStore(t.TempDir())

	record, err := keystore.Create(testMnemonic, "main", []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, store.Save(record))

	other, err := keystore.Create(otherMnemonic, "other", []byte(otherPassword))
	require.NoError(t, err)
	require.NoError(t, store.Save(other))

	f := &fixture{
		cache: credential.NewCache(store),
		store: store,
		addr:  record.Address,
		other: other.Address,
	}

	prompt := func(_ context.Context, _ string, _, _ int) ([]byte, error) {
		n := int(f.prompts.Add(1))
		if n > len(script) {
			n = len(script)
		}
		return []byte(script[n-1]), nil
	}
	f.adapter = New(f.cache, nil, prompt, zerolog.Nop())
	return f
}

func TestSignPayload_ColdCacheAuthenticates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)

	result, err := f.adapter.SignPayload(context.Background(), TxPayload{
		Module: "balances",
		Method: "transfer",
		Args:   []byte{0x01, 0x02},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotZero(t, result.ID)
	assert.NotEmpty(t, result.Signature)
	assert.Equal(t, int32(1), f.prompts.Load())
	assert.Equal(t, f.addr, f.cache.BoundAddress())
}

func TestSignRaw_VerifiableSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)
	raw := []byte("raw signing bytes")

	result, err := f.adapter.SignRaw(context.Background(), f.addr, raw)
	require.NoError(t, err)

	kp, err := keys.FromMnemonic(testMnemonic)
	require.NoError(t, err)
	defer kp.Destroy()

	assert.True(t, kp.Verify(raw, result.Signature))
}

func TestSign_WarmCacheSkipsPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)
	ctx := context.Background()

	_, err := f.adapter.SignRaw(ctx, "", []byte("first"))
	require.NoError(t, err)
	_, err = f.adapter.SignRaw(ctx, "", []byte("second"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.prompts.Load())
}

func TestSign_DistinctIDsAcrossCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)
	ctx := context.Background()

	seen := make(map[uint64]bool)
	for i := 0; i < 20; i++ {
		result, err := f.adapter.SignRaw(ctx, "", []byte("payload"))
		require.NoError(t, err)
		require.NotZero(t, result.ID)
		require.False(t, seen[result.ID], "duplicate request id %d", result.ID)
		seen[result.ID] = true
	}
}

func TestAuthenticate_RetryBudgetIsStrict(t *testing.T) {
	t.Parallel()

	// Wrong three times, then correct: the budget exhausts on the third
	// failure and the fourth attempt is never evaluated.
	f := newFixture(t, "wrong", "wrong", "wrong", testPassword)

	_, err := f.adapter.SignRaw(context.Background(), "", []byte("payload"))
	require.Error(t, err)

	assert.True(t, kwerr.Is(err, kwerr.ErrAuthExhausted))
	assert.Equal(t, int32(3), f.prompts.Load())
	assert.False(t, f.cache.IsActive())
}

func TestAuthenticate_SucceedsWithinBudget(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "wrong", "wrong", testPassword)

	result, err := f.adapter.SignRaw(context.Background(), "", []byte("payload"))
	require.NoError(t, err)

	assert.NotNil(t, result)
	assert.Equal(t, int32(3), f.prompts.Load())
}

func TestAuthenticate_UserCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var calls atomic.Int32
	f.adapter.prompt = func(context.Context, string, int, int) ([]byte, error) {
		calls.Add(1)
		return nil, kwerr.ErrUserCancelled
	}

	_, err := f.adapter.SignRaw(context.Background(), "", []byte("payload"))
	require.Error(t, err)

	assert.True(t, kwerr.Is(err, kwerr.ErrUserCancelled))
	assert.Equal(t, int32(1), calls.Load(), "cancellation must abort immediately")
}

func TestAuthenticate_AddressSwitchReauthenticates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword, otherPassword)
	ctx := context.Background()

	_, err := f.adapter.SignRaw(ctx, f.addr, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, f.addr, f.cache.BoundAddress())

	// A request for the other wallet must not reuse the warm keypair.
	_, err = f.adapter.SignRaw(ctx, f.other, []byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, f.other, f.cache.BoundAddress())
	assert.Equal(t, int32(2), f.prompts.Load())
}

func TestSign_CurrentWalletSwitchInvalidatesBind(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword, otherPassword)
	ctx := context.Background()

	_, err := f.adapter.SignRaw(ctx, "", []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, f.addr, f.cache.BoundAddress())

	// Select the other wallet directly in the keystore. An unnamed
	// request must not be served by the bind left from the old wallet.
	require.NoError(t, f.store.SetCurrent(f.other))

	raw := []byte("after switch")
	result, err := f.adapter.SignRaw(ctx, "", raw)
	require.NoError(t, err)

	assert.Equal(t, f.other, f.cache.BoundAddress())
	assert.Equal(t, int32(2), f.prompts.Load())

	kp, err := keys.FromMnemonic(otherMnemonic)
	require.NoError(t, err)
	defer kp.Destroy()
	assert.True(t, kp.Verify(raw, result.Signature))
}

func TestAuthenticate_FailedSwitchKeepsWarmAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword, "wrong", "wrong", "wrong")
	ctx := context.Background()

	_, err := f.adapter.SignRaw(ctx, f.addr, []byte("payload"))
	require.NoError(t, err)

	_, err = f.adapter.SignRaw(ctx, f.other, []byte("payload"))
	require.Error(t, err)
	require.True(t, kwerr.Is(err, kwerr.ErrAuthExhausted))

	// The exhausted flow for the other wallet leaves the original
	// credential intact.
	assert.True(t, f.cache.IsActive())
	assert.Equal(t, f.addr, f.cache.BoundAddress())

	result, err := f.adapter.SignRaw(ctx, f.addr, []byte("again"))
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestEnsureActive_CoalescesConcurrentPrompts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	release := make(chan struct{})
	var calls atomic.Int32
	f.adapter.prompt = func(context.Context, string, int, int) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(testPassword), nil
	}

	const workers = 8
	var started, done sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			_, errs[i] = f.adapter.SignRaw(context.Background(), f.addr, []byte("payload"))
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int32(1), calls.Load(), "concurrent requests must share one prompt")
}

func TestEnsureActive_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.adapter.prompt = func(context.Context, string, int, int) ([]byte, error) {
		close(entered)
		<-release
		return []byte(testPassword), nil
	}

	var holderErr error
	var holderDone sync.WaitGroup
	holderDone.Add(1)
	go func() {
		defer holderDone.Done()
		_, holderErr = f.adapter.SignRaw(context.Background(), f.addr, []byte("payload"))
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.adapter.SignRaw(ctx, f.addr, []byte("payload"))
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	holderDone.Wait()
	require.NoError(t, holderErr, "cancelling a waiter must not cancel the in-flight authentication")
}

func TestAuthenticate_MissingKeystoreFailsFast(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)

	_, err := f.adapter.SignRaw(context.Background(), "5Unknown", []byte("payload"))
	require.Error(t, err)

	assert.True(t, kwerr.Is(err, kwerr.ErrNoKeystore))
	assert.Equal(t, int32(1), f.prompts.Load(), "retyping cannot fix a missing keystore")
}

func TestBindSession_CreatesAndRefreshes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword, otherPassword)
	sessions := session.NewManager(
		session.NewFileStore(t.TempDir()), nil, zerolog.Nop(), session.Config{},
	)
	t.Cleanup(sessions.Close)
	f.adapter.sessions = sessions

	ctx := context.Background()
	_, err := f.adapter.SignRaw(ctx, f.addr, []byte("payload"))
	require.NoError(t, err)

	current := sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, f.addr, current.Address)

	// Switching wallets replaces the session binding.
	_, err = f.adapter.SignRaw(ctx, f.other, []byte("payload"))
	require.NoError(t, err)

	current = sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, f.other, current.Address)
}

func TestUpdate_IsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testPassword)
	f.adapter.Update()

	assert.False(t, f.cache.IsActive())
	assert.Equal(t, int32(0), f.prompts.Load())
}
