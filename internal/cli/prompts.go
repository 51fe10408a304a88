package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/memopark/keyward/internal/keys"
	"github.com/memopark/keyward/internal/keywardcrypto"
	"github.com/memopark/keyward/internal/signer"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// Prompt function variables, swappable in tests.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
)

// promptLimiter throttles password prompts so a misbehaving caller
// cannot hammer the authentication flow.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var promptLimiter = rate.NewLimiter(rate.Every(time.Second), 3)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		keywardcrypto.ZeroBytes(password)
		return nil, kwerr.WithSuggestion(
			kwerr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		keywardcrypto.ZeroBytes(password)
		return nil, err
	}
	defer keywardcrypto.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		keywardcrypto.ZeroBytes(password)
		return nil, kwerr.WithSuggestion(
			kwerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptMnemonic prompts for a multi-word mnemonic phrase.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your mnemonic phrase (all words on one line):")

	var words []string
	for i := 0; i < 24; i++ {
		var word string
		_, err := fmt.Scan(&word)
		if err != nil {
			break
		}
		words = append(words, word)

		mnemonic := keys.NormalizeMnemonic(strings.Join(words, " "))
		if (len(words) == 12 || len(words) == 24) && keys.ValidateMnemonic(mnemonic) == nil {
			return mnemonic, nil
		}
	}

	if len(words) > 0 {
		return strings.Join(words, " "), nil
	}
	return "", kwerr.WithSuggestion(kwerr.ErrInvalidInput, "no input provided")
}

// signerPrompt adapts the interactive password prompt to the signer's
// contract, with attempt feedback and rate limiting. An empty password
// is treated as a dismissal.
func signerPrompt() signer.PromptFunc {
	return func(ctx context.Context, address string, attempt, maxAttempts int) ([]byte, error) {
		if err := promptLimiter.Wait(ctx); err != nil {
			return nil, kwerr.Wrap(kwerr.ErrUserCancelled, "prompt interrupted")
		}

		label := "Enter wallet password"
		if address != "" {
			label = fmt.Sprintf("Enter password for %s", shortAddress(address))
		}
		if attempt > 1 {
			label = fmt.Sprintf("%s (attempt %d/%d)", label, attempt, maxAttempts)
		}

		password, err := promptPasswordFn(label + ": ")
		if err != nil {
			return nil, err
		}
		if len(password) == 0 {
			return nil, kwerr.ErrUserCancelled
		}
		return password, nil
	}
}

// shortAddress abbreviates an address for prompt display.
func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
