package cli

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopark/keyward/internal/keys"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

func resetSignFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		signAddress, signModule, signMethod, signArgs, signRaw = "", "", "", "", ""
	})
}

func TestSign_Raw(t *testing.T) {
	cc := newTestContext(t)
	withMockPrompts(t, []byte(testPassword))
	createTestWallet(t, cc, testMnemonic, "main")
	resetSignFlags(t)

	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	signRaw = "0x" + hex.EncodeToString(raw)

	cmd, buf := newTestCmd(t)
	require.NoError(t, runSign(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "Request ID:")

	// Recover the hex signature from the output and verify it.
	var sigHex string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Signature:") {
			sigHex = strings.TrimPrefix(strings.TrimSpace(strings.Split(line, "Signature:")[1]), "0x")
		}
	}
	require.NotEmpty(t, sigHex)

	sig, err := hex.DecodeString(strings.TrimSpace(sigHex))
	require.NoError(t, err)

	kp, err := keys.FromMnemonic(testMnemonic)
	require.NoError(t, err)
	defer kp.Destroy()
	assert.True(t, kp.Verify(raw, sig))
}

func TestSign_Payload(t *testing.T) {
	cc := newTestContext(t)
	withMockPrompts(t, []byte(testPassword))
	createTestWallet(t, cc, testMnemonic, "main")
	resetSignFlags(t)

	signModule = "balances"
	signMethod = "transfer"
	signArgs = "0x0004"

	cmd, buf := newTestCmd(t)
	require.NoError(t, runSign(cmd, nil))

	assert.Contains(t, buf.String(), "Signature:  0x")
	assert.True(t, cc.Credentials.IsActive())
}

func TestSign_RequiresPayloadOrRaw(t *testing.T) {
	cc := newTestContext(t)
	createTestWallet(t, cc, testMnemonic, "main")
	resetSignFlags(t)

	cmd, _ := newTestCmd(t)
	err := runSign(cmd, nil)
	require.Error(t, err)
	assert.True(t, kwerr.Is(err, kwerr.ErrInvalidInput))
}

func TestSign_InvalidHex(t *testing.T) {
	cc := newTestContext(t)
	createTestWallet(t, cc, testMnemonic, "main")
	resetSignFlags(t)

	signRaw = "0xZZZZ"

	cmd, _ := newTestCmd(t)
	err := runSign(cmd, nil)
	require.Error(t, err)
	assert.True(t, kwerr.Is(err, kwerr.ErrInvalidInput))
}

func TestDecodeHex(t *testing.T) {
	t.Parallel()

	data, err := decodeHex("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	data, err = decodeHex("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	data, err = decodeHex("")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = decodeHex("xyz")
	require.Error(t, err)
}
