package keywardcrypto

import (
	"crypto/rand"
	"io"
	"runtime"
)

// Reader is the cryptographically secure random number generator.
// It wraps crypto/rand.Reader for consistency and testability.
//
//nolint:gochecknoglobals // Package-level RNG is required for testability
var Reader io.Reader = rand.Reader

// RandomBytes generates cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ZeroBytes securely zeros a byte slice.
// runtime.KeepAlive prevents the compiler from optimizing away the zeroing
// as a dead store when the slice is not used afterward.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
