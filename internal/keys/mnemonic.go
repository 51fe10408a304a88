// Package keys provides signing keypairs for keyward wallets: BIP39
// mnemonic handling, ed25519 key derivation, and SS58 address encoding.
package keys

import (
	"errors"
	"regexp"
	"strings"

	bip39 "github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidWordCount indicates the mnemonic must be 12 or 24 words.
	ErrInvalidWordCount = errors.New("word count must be 12 or 24")

	// ErrInvalidMnemonic indicates the mnemonic is not valid.
	ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// GenerateMnemonic creates a new BIP39 mnemonic phrase.
// wordCount must be 12 (128 bits entropy) or 24 (256 bits entropy).
func GenerateMnemonic(wordCount int) (string, error) {
	var bitSize int
	switch wordCount {
	case 12:
		bitSize = 128
	case 24:
		bitSize = 256
	default:
		return "", ErrInvalidWordCount
	}

	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", err
	}

	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases a mnemonic and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	normalized := strings.ToLower(strings.TrimSpace(mnemonic))
	return whitespaceRegex.ReplaceAllString(normalized, " ")
}

// ValidateMnemonic checks that a mnemonic is a valid BIP39 phrase.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)

	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return ErrInvalidWordCount
	}

	if !bip39.IsMnemonicValid(normalized) {
		return ErrInvalidMnemonic
	}

	return nil
}

// SeedFromMnemonic derives the BIP39 seed from a mnemonic phrase.
// The caller is responsible for zeroing the returned seed after use.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	normalized := NormalizeMnemonic(mnemonic)
	if err := ValidateMnemonic(normalized); err != nil {
		return nil, err
	}
	return bip39.NewSeed(normalized, ""), nil
}
