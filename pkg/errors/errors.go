// Package errors provides structured error handling for keyward.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes for the CLI.
const (
	ExitSuccess   = 0 // Successful execution
	ExitGeneral   = 1 // General/unknown error
	ExitInput     = 2 // Invalid input
	ExitAuth      = 3 // Authentication failed
	ExitNotFound  = 4 // Resource not found
	ExitCancelled = 5 // User cancelled the operation
)

// KeywardError is the structured error type for keyward.
type KeywardError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *KeywardError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *KeywardError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for KeywardError.
func (e *KeywardError) Is(target error) bool {
	var t *KeywardError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &KeywardError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &KeywardError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Keystore errors.
	ErrNoKeystore = &KeywardError{
		Code:     "NO_KEYSTORE",
		Message:  "no encrypted keystore found for the selected address",
		ExitCode: ExitNotFound,
	}

	ErrInvalidPassword = &KeywardError{
		Code:     "INVALID_PASSWORD",
		Message:  "decryption failed - wrong password or corrupted keystore",
		ExitCode: ExitAuth,
	}

	ErrAddressMismatch = &KeywardError{
		Code:     "ADDRESS_MISMATCH",
		Message:  "derived address does not match keystore address",
		ExitCode: ExitGeneral,
	}

	ErrKeystoreExists = &KeywardError{
		Code:     "KEYSTORE_EXISTS",
		Message:  "a keystore already exists for this address",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &KeywardError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	// Credential and session errors.
	ErrSessionInactive = &KeywardError{
		Code:     "SESSION_INACTIVE",
		Message:  "no active signing session - authentication required",
		ExitCode: ExitAuth,
	}

	ErrSessionExpired = &KeywardError{
		Code:     "SESSION_EXPIRED",
		Message:  "session has expired",
		ExitCode: ExitAuth,
	}

	ErrSessionCorrupted = &KeywardError{
		Code:     "SESSION_CORRUPTED",
		Message:  "session record is corrupted",
		ExitCode: ExitGeneral,
	}

	// Signing flow errors.
	ErrUserCancelled = &KeywardError{
		Code:     "USER_CANCELLED",
		Message:  "authentication cancelled by user",
		ExitCode: ExitCancelled,
	}

	ErrAuthExhausted = &KeywardError{
		Code:     "AUTH_EXHAUSTED",
		Message:  "too many failed password attempts",
		ExitCode: ExitAuth,
	}

	// Config errors.
	ErrConfigInvalid = &KeywardError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &KeywardError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}
)

// New creates a new KeywardError with the given code and message.
func New(code, message string) *KeywardError {
	return &KeywardError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ke *KeywardError
	if errors.As(err, &ke) {
		return &KeywardError{
			Code:       ke.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ke.Message),
			Details:    ke.Details,
			Suggestion: ke.Suggestion,
			Cause:      err,
			ExitCode:   ke.ExitCode,
		}
	}

	return &KeywardError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ke *KeywardError
	if errors.As(err, &ke) {
		return &KeywardError{
			Code:       ke.Code,
			Message:    ke.Message,
			Details:    details,
			Suggestion: ke.Suggestion,
			Cause:      ke.Cause,
			ExitCode:   ke.ExitCode,
		}
	}

	return &KeywardError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ke *KeywardError
	if errors.As(err, &ke) {
		return &KeywardError{
			Code:       ke.Code,
			Message:    ke.Message,
			Details:    ke.Details,
			Suggestion: suggestion,
			Cause:      ke.Cause,
			ExitCode:   ke.ExitCode,
		}
	}

	return &KeywardError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ke *KeywardError
	if errors.As(err, &ke) {
		return ke.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ke *KeywardError
	if errors.As(err, &ke) {
		return ke.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
