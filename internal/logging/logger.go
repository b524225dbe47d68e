// Package logging provides the small stderr logger used across the wrapper,
// plus the Secret type for keeping secret material out of log output.
package logging

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes leveled messages to stderr. Debug output is gated behind the
// --debug flag; Trace adds the per-step diagnostic detail shown in verbose
// mode.
type Logger struct {
	debug   bool
	verbose bool
	noColor bool
}

// New creates a logger. verbose implies the full diagnostic trace on errors.
func New(debug, verbose, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		verbose: verbose,
		noColor: noColor,
	}
}

// Verbose reports whether the full diagnostic trace was requested.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m", "✗", format, args...)
}

// Debug logs a debug message when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m", "[DEBUG]", format, args...)
}

// Trace logs pipeline step detail when verbose mode is enabled.
func (l *Logger) Trace(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.emit("\033[90m", "[TRACE]", format, args...)
}

func (l *Logger) emit(color, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s\033[0m %s\n", color, prefix, msg)
}

// Secret wraps a value that must never appear in logs. Formatting a Secret
// with any verb yields [REDACTED].
type Secret string

func (s Secret) String() string {
	return "[REDACTED]"
}

func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces occurrences of the given secret values in s.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		// Trivially short values would redact unrelated text.
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
