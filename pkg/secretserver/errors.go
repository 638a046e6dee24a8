package secretserver

import "fmt"

// ConfigError reports invalid construction input (missing base URL,
// non-positive secret ID, and so on). It is returned at construction
// time, never at first use.
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("secretserver: invalid %s: %s", e.Field, e.Message)
	}
	return "secretserver: " + e.Message
}

// AuthError reports a failed token exchange or a request the server
// rejected as unauthenticated after the single forced refresh.
type AuthError struct {
	Op         string // "exchange" or "fetch"
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("secretserver: authentication failed during %s (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("secretserver: authentication failed during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("secretserver: authentication failed during %s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a secret ID the server does not know or will
// not let the authenticated identity read.
type NotFoundError struct {
	SecretID int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secretserver: secret %d not found or not accessible", e.SecretID)
}

// TransportError reports a network-level failure (DNS, TLS, timeout,
// connection reset). These are never retried by the client.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("secretserver: %s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that violates the server
// contract.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("secretserver: malformed %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError reports an unexpected non-2xx status that maps to no more
// specific error kind.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("secretserver: %s returned status %d: %s", e.Op, e.StatusCode, e.Message)
}

// FieldNotFoundError reports that a mandatory field slug is absent
// from a fetched secret. Slug matching is case-sensitive.
type FieldNotFoundError struct {
	SecretID int
	Slug     string
}

func (e FieldNotFoundError) Error() string {
	return fmt.Sprintf("secretserver: secret %d has no field with slug %q", e.SecretID, e.Slug)
}
