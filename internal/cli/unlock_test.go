package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kwerr "github.com/memopark/keyward/pkg/errors"
)

func TestUnlockAndLock(t *testing.T) {
	cc := newTestContext(t)
	withMockPrompts(t, []byte(testPassword))
	addr := createTestWallet(t, cc, testMnemonic, "main")

	cmd, buf := newTestCmd(t)
	require.NoError(t, runUnlock(cmd, nil))

	assert.True(t, cc.Credentials.IsActive())
	assert.Equal(t, addr, cc.Credentials.BoundAddress())
	assert.Contains(t, buf.String(), addr)

	current := cc.Sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, addr, current.Address)

	cmd, buf = newTestCmd(t)
	require.NoError(t, runLock(cmd, nil))

	assert.False(t, cc.Credentials.IsActive())
	assert.Nil(t, cc.Sessions.Current())
	assert.Contains(t, buf.String(), "session cleared")
}

func TestUnlock_NoWallet(t *testing.T) {
	newTestContext(t)
	withMockPrompts(t, []byte(testPassword))

	cmd, _ := newTestCmd(t)
	err := runUnlock(cmd, nil)
	require.Error(t, err)
	assert.True(t, kwerr.Is(err, kwerr.ErrNoKeystore))
}

func TestUnlock_WrongPasswordExhausts(t *testing.T) {
	cc := newTestContext(t)
	withMockPrompts(t, []byte("definitely wrong"))
	createTestWallet(t, cc, testMnemonic, "main")

	cmd, _ := newTestCmd(t)
	err := runUnlock(cmd, nil)
	require.Error(t, err)

	assert.True(t, kwerr.Is(err, kwerr.ErrAuthExhausted))
	assert.False(t, cc.Credentials.IsActive())
	assert.Nil(t, cc.Sessions.Current())
}

func TestUnlock_ExplicitAddress(t *testing.T) {
	cc := newTestContext(t)
	withMockPrompts(t, []byte(testPassword))
	createTestWallet(t, cc, testMnemonic, "main")
	other := createTestWallet(t, cc,
		"letter advice cage absurd amount doctor acoustic avoid letter advice cage above", "savings")

	cmd, _ := newTestCmd(t)
	require.NoError(t, runUnlock(cmd, []string{other}))

	assert.Equal(t, other, cc.Credentials.BoundAddress())
}
