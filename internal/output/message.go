package output

import (
	"fmt"
	"os"
)

// Status message prefixes. Warnings go to stderr so they survive piping
// of command output.
const (
	infoPrefix    = "ℹ️  "
	warnPrefix    = "⚠️  "
	successPrefix = "✅ "
)

// Info prints an informational status line to stdout.
func Info(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, infoPrefix+msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning to stderr.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, warnPrefix+msg)
}

// Warnf is Warn with formatting.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Success prints a success status line to stdout.
func Success(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, successPrefix+msg)
}

// Successf is Success with formatting.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}
