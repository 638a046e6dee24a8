package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Debug("token refresh for secret %d", 42)
	if buf.Len() != 0 {
		t.Errorf("Debug wrote output with debug disabled: %q", buf.String())
	}
}

func TestDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	logger.Debug("token refresh for secret %d", 42)
	got := buf.String()
	if got != "[DEBUG] token refresh for secret 42\n" {
		t.Errorf("unexpected debug output: %q", got)
	}
}

func TestLevelsWriteWithoutColor(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *Logger)
		want string
	}{
		{
			name: "info",
			log:  func(l *Logger) { l.Info("resolved %s", "username") },
			want: "✓ resolved username\n",
		},
		{
			name: "warn",
			log:  func(l *Logger) { l.Warn("token near expiry") },
			want: "⚠ token near expiry\n",
		},
		{
			name: "error",
			log:  func(l *Logger) { l.Error("fetch failed") },
			want: "✗ fetch failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewWithWriter(&buf, false, true))
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestColorOutputContainsEscapeCodes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, false)

	logger.Info("done")
	if !strings.Contains(buf.String(), "\033[32m") {
		t.Errorf("expected ANSI color in output, got %q", buf.String())
	}
}

func TestSecretFormatsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	value := "super-secret-password-12345"
	logger.Debug("retrieved value %s", Secret(value))

	out := buf.String()
	if strings.Contains(out, value) {
		t.Fatalf("secret value leaked into log output: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker in output: %q", out)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single secret",
			input:   "password is secret123",
			secrets: []string{"secret123"},
			want:    "password is [REDACTED]",
		},
		{
			name:    "multiple secrets",
			input:   "user alice token abc123xyz",
			secrets: []string{"alice", "abc123xyz"},
			want:    "user [REDACTED] token [REDACTED]",
		},
		{
			name:    "short values left alone",
			input:   "id is ab",
			secrets: []string{"ab"},
			want:    "id is ab",
		},
		{
			name:    "no secrets",
			input:   "nothing sensitive here",
			secrets: nil,
			want:    "nothing sensitive here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.input, tt.secrets); got != tt.want {
				t.Errorf("Redact() = %q, want %q", got, tt.want)
			}
		})
	}
}
