// Package keywardcrypto provides the password-based encryption used for
// keystore records: age with scrypt recipients.
package keywardcrypto

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"

	"filippo.io/age"
)

// defaultWorkFactor is the age default scrypt work factor (log2 N = 18).
const defaultWorkFactor = 18

// scryptWorkFactor can be lowered in tests to keep encryption fast.
//
//nolint:gochecknoglobals // Package-level knob is required for testability
var scryptWorkFactor atomic.Int32

func init() { //nolint:gochecknoinits // Initializes the default work factor
	scryptWorkFactor.Store(defaultWorkFactor)
}

// SetScryptWorkFactor overrides the scrypt work factor (log2 of N).
// Intended for tests; values below 1 restore the default.
func SetScryptWorkFactor(logN int) {
	if logN < 1 {
		logN = defaultWorkFactor
	}
	scryptWorkFactor.Store(int32(logN)) //nolint:gosec // G115: bounded small value
}

// Encrypt encrypts plaintext using age with a password-based recipient.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(int(scryptWorkFactor.Load()))

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext using age with a password-based identity.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}
