// Package logging provides the small stderr logger used by the client
// and CLI, with redaction support so credential material never reaches
// the log stream.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes human-oriented diagnostics. Secret values must be
// wrapped in Secret (or redacted via Redact) before logging.
type Logger struct {
	out     io.Writer
	debug   bool
	noColor bool
}

// New creates a logger writing to stderr.
func New(debug, noColor bool) *Logger {
	return &Logger{out: os.Stderr, debug: debug, noColor: noColor}
}

// NewWithWriter creates a logger writing to w. Used in tests.
func NewWithWriter(w io.Writer, debug, noColor bool) *Logger {
	return &Logger{out: w, debug: debug, noColor: noColor}
}

func (l *Logger) log(color, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor || color == "" {
		fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(l.out, "%s%s\033[0m %s\n", color, prefix, msg)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log("\033[32m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log("\033[33m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log("\033[31m", "✗", format, args...)
}

// Debug logs a message only when debug mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.log("\033[36m", "[DEBUG]", format, args...)
}

// Secret wraps a sensitive value so it formats as [REDACTED].
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces occurrences of the given secrets in s with
// [REDACTED]. Trivially short values are left alone to avoid mangling
// unrelated text.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
