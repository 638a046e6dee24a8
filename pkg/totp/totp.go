// Package totp derives time-based one-time codes from a shared seed.
package totp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Defaults follow RFC 6238 and what Secret Server templates store:
// SHA-1, 30 second step, 6 digits.
const (
	DefaultPeriod = 30 * time.Second
	DefaultDigits = 6
)

// InvalidSeedError indicates the stored seed is not valid base32 key
// material.
type InvalidSeedError struct {
	Err error
}

func (e *InvalidSeedError) Error() string {
	return fmt.Sprintf("totp: invalid seed: %v", e.Err)
}

func (e *InvalidSeedError) Unwrap() error {
	return e.Err
}

// Generate computes the code for the given seed at the given time.
// It is a pure function of (seed, time window) and retains no state.
func Generate(seed string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(normalizeSeed(seed), at, totp.ValidateOpts{
		Period:    uint(DefaultPeriod / time.Second),
		Digits:    otp.Digits(DefaultDigits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", &InvalidSeedError{Err: err}
	}
	return code, nil
}

// normalizeSeed tolerates the formatting seen in stored seeds: spaces
// and dashes from manual entry, lower case, and missing "=" padding.
func normalizeSeed(seed string) string {
	s := strings.ToUpper(strings.TrimSpace(seed))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimRight(s, "=")
	if rem := len(s) % 8; rem != 0 {
		s += strings.Repeat("=", 8-rem)
	}
	return s
}
