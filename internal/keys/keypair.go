package keys

import (
	"crypto/ed25519"
	"errors"

	"github.com/memopark/keyward/internal/keywardcrypto"
)

// ErrKeypairDestroyed indicates the keypair's material has been wiped.
var ErrKeypairDestroyed = errors.New("keypair has been destroyed")

// Keypair holds an ed25519 signing keypair derived from a wallet seed.
// It lives only in memory and must be destroyed when no longer needed.
type Keypair struct {
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
	address string
}

// FromSeed derives a keypair from a BIP39 seed. The first 32 bytes of the
// seed are used as the ed25519 private seed, matching the single-account
// derivation the wallet uses.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) < ed25519.SeedSize {
		return nil, errors.New("seed too short for key derivation")
	}

	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("unexpected public key type")
	}

	addr, err := EncodeSS58(pub)
	if err != nil {
		return nil, err
	}

	return &Keypair{
		priv:    priv,
		pub:     pub,
		address: addr,
	}, nil
}

// FromMnemonic derives a keypair directly from a mnemonic phrase.
// The intermediate seed is zeroed before returning.
func FromMnemonic(mnemonic string) (*Keypair, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer keywardcrypto.ZeroBytes(seed)

	return FromSeed(seed)
}

// Address returns the SS58-encoded address for the public key.
func (k *Keypair) Address() string {
	return k.address
}

// Public returns the public key bytes.
func (k *Keypair) Public() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

// Sign signs a payload with the private key.
func (k *Keypair) Sign(payload []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, ErrKeypairDestroyed
	}
	return ed25519.Sign(k.priv, payload), nil
}

// Verify checks a signature over a payload against the public key.
func (k *Keypair) Verify(payload, signature []byte) bool {
	if k.pub == nil {
		return false
	}
	return ed25519.Verify(k.pub, payload, signature)
}

// Destroy zeroes the private key material. Safe to call multiple times.
func (k *Keypair) Destroy() {
	if k.priv != nil {
		keywardcrypto.ZeroBytes(k.priv)
		k.priv = nil
	}
}
