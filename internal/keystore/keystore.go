// Package keystore stores password-encrypted wallet mnemonics on disk.
// Each record holds non-secret metadata plus an age-encrypted mnemonic;
// a pointer file selects the current address.
package keystore

import (
	"time"

	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keywardcrypto"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// Record is an encrypted keystore entry for one address.
type Record struct {
	// Address is the SS58 address the encrypted mnemonic derives to.
	Address string `json:"address"`

	// Label is an optional human-readable wallet label.
	Label string `json:"label,omitempty"`

	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`

	// EncryptedMnemonic is the age-encrypted mnemonic phrase.
	EncryptedMnemonic []byte `json:"encrypted_mnemonic"`
}

// Store defines the keystore persistence contract.
type Store interface {
	// Save writes a record. Fails with ErrKeystoreExists if the address
	// already has one.
	Save(record *Record) error

	// Load reads the record for an address. Fails with ErrNoKeystore if
	// no record exists.
	Load(address string) (*Record, error)

	// LoadCurrent reads the record for the currently selected address.
	LoadCurrent() (*Record, error)

	// CurrentAddress returns the currently selected address, or "" if
	// none is selected.
	CurrentAddress() string

	// SetCurrent selects the current address. The address must have a
	// stored record.
	SetCurrent(address string) error

	// List returns all stored addresses.
	List() ([]string, error)

	// Delete removes the record for an address.
	Delete(address string) error
}

// Create builds an encrypted record from a mnemonic and password.
// The mnemonic is validated and its derived address recorded so that
// later decryptions can be cross-checked against it.
func Create(mnemonic, label string, password []byte) (*Record, error) {
	kp, err := keys.FromMnemonic(mnemonic)
	if err != nil {
		return nil, kwerr.Wrap(kwerr.ErrInvalidMnemonic, "creating keystore record")
	}
	defer kp.Destroy()

	encrypted, err := keywardcrypto.Encrypt([]byte(keys.NormalizeMnemonic(mnemonic)), string(password))
	if err != nil {
		return nil, kwerr.Wrap(err, "encrypting mnemonic")
	}

	return &Record{
		Address:           kp.Address(),
		Label:             label,
		CreatedAt:         time.Now(),
		EncryptedMnemonic: encrypted,
	}, nil
}

// Decrypt recovers the mnemonic from a record using the password.
// Fails with ErrInvalidPassword if the password is wrong or the record
// is corrupted. The caller must zero the returned bytes after use.
func Decrypt(password []byte, record *Record) ([]byte, error) {
	if record == nil || len(record.EncryptedMnemonic) == 0 {
		return nil, kwerr.ErrNoKeystore
	}

	mnemonic, err := keywardcrypto.Decrypt(record.EncryptedMnemonic, string(password))
	if err != nil {
		return nil, kwerr.ErrInvalidPassword
	}

	return mnemonic, nil
}
