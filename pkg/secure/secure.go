// Package secure provides memory-safe handling of credential material.
//
// It wraps the memguard library so that passwords and fetched secret
// values are encrypted at rest in memory (XSalsa20Poly1305), protected
// from swapping via mlock where available, and wiped on destruction.
// Plaintext only exists inside the Reveal callback.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a String is used after Destroy.
var ErrDestroyed = errors.New("secure: string already destroyed")

// String is an immutable secret string held in an encrypted enclave.
// The zero value is unusable; create one with NewString.
type String struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	gone    bool
}

// NewString seals the given value into protected memory. The caller's
// copy of the value is not modified; prefer passing values that go out
// of scope immediately after sealing.
func NewString(value string) *String {
	if value == "" {
		// memguard rejects zero-length buffers; an empty secret needs
		// no protection anyway.
		return &String{}
	}
	return &String{enclave: memguard.NewEnclave([]byte(value))}
}

// Reveal decrypts the value and passes the plaintext to fn. The byte
// slice is only valid for the duration of the call and is wiped when
// fn returns. fn must not retain it.
func (s *String) Reveal(fn func(value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.gone {
		return ErrDestroyed
	}

	if s.enclave == nil {
		return fn(nil)
	}

	buf, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}

// RevealString is a convenience wrapper for callers that need the value
// as a string (for example to place it in a form body). The returned
// string is ordinary Go memory and cannot be wiped; use Reveal where
// possible.
func (s *String) RevealString() (string, error) {
	var out string
	err := s.Reveal(func(value []byte) error {
		out = string(value)
		return nil
	})
	return out, err
}

// Destroy marks the String as unusable. The underlying enclave stays
// encrypted, so destruction is about preventing reuse rather than
// scrubbing ciphertext. Safe to call more than once.
func (s *String) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gone = true
	s.enclave = nil
}

// String implements fmt.Stringer and always redacts, so a secret can
// never leak through careless formatting.
func (s *String) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s *String) GoString() string {
	return "[REDACTED]"
}
