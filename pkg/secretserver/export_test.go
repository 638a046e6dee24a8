package secretserver

import "time"

// SetCredentialClock overrides the clock used for OTP derivation in
// tests.
func SetCredentialClock(cr *Credential, now func() time.Time) {
	cr.now = now
}
