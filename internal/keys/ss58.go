package keys

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// NetworkPrefix is the SS58 network prefix for addresses. 42 is the
// generic Substrate prefix, which yields the familiar "5..." addresses.
const NetworkPrefix = 42

// ss58Prefix is the checksum preimage prefix defined by the SS58 format.
var ss58Prefix = []byte("SS58PRE")

// checksumLength is the number of checksum bytes appended to an address.
const checksumLength = 2

var (
	// ErrInvalidSS58 indicates a malformed SS58 address.
	ErrInvalidSS58 = errors.New("invalid SS58 address")

	// ErrChecksumMismatch indicates the SS58 checksum does not match.
	ErrChecksumMismatch = errors.New("SS58 checksum mismatch")
)

// EncodeSS58 encodes a public key as an SS58 address.
func EncodeSS58(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", ErrInvalidSS58
	}

	payload := make([]byte, 0, 1+len(pub)+checksumLength)
	payload = append(payload, byte(NetworkPrefix))
	payload = append(payload, pub...)

	checksum, err := ss58Checksum(payload)
	if err != nil {
		return "", err
	}
	payload = append(payload, checksum[:checksumLength]...)

	return base58.Encode(payload), nil
}

// DecodeSS58 decodes an SS58 address back into public key bytes,
// verifying the checksum and network prefix.
func DecodeSS58(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, ErrInvalidSS58
	}

	if len(raw) != 1+ed25519.PublicKeySize+checksumLength {
		return nil, ErrInvalidSS58
	}
	if raw[0] != byte(NetworkPrefix) {
		return nil, ErrInvalidSS58
	}

	body := raw[:len(raw)-checksumLength]
	checksum, err := ss58Checksum(body)
	if err != nil {
		return nil, err
	}
	if checksum[0] != raw[len(raw)-2] || checksum[1] != raw[len(raw)-1] {
		return nil, ErrChecksumMismatch
	}

	pub := make([]byte, ed25519.PublicKeySize)
	copy(pub, raw[1:1+ed25519.PublicKeySize])
	return pub, nil
}

// ValidAddress reports whether an address is a well-formed SS58 address
// for the configured network prefix.
func ValidAddress(address string) bool {
	_, err := DecodeSS58(address)
	return err == nil
}

// ss58Checksum computes the blake2b-512 checksum over the SS58 preimage.
func ss58Checksum(body []byte) ([]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	h.Write(ss58Prefix)
	h.Write(body)
	return h.Sum(nil), nil
}
