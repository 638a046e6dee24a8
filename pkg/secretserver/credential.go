package secretserver

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/systmms/sscreds/pkg/totp"
)

// Default field slugs used when a CredentialSpec leaves them empty.
const (
	DefaultIdentitySlug = "username"
	DefaultSecretSlug   = "password"
	DefaultOTPSlug      = "totp"
)

// CredentialSpec selects which secret to resolve and which field slugs
// carry the identity, secret and OTP seed values.
type CredentialSpec struct {
	// SecretID is the numeric secret to resolve. Required, positive.
	SecretID int

	// IdentitySlug selects the identity field. Defaults to "username".
	IdentitySlug string

	// SecretSlug selects the secret field. Defaults to "password".
	SecretSlug string

	// OTPSlug selects the OTP seed field. Defaults to "totp". A secret
	// without this slug simply yields no OTP; it is not an error.
	OTPSlug string

	// NameAsIdentityTemplates lists secret template IDs whose secrets
	// use the secret's own name as the identity (service-account
	// templates store the account name there rather than in a field).
	NameAsIdentityTemplates []int
}

// Credential is the lazily-resolved view over one secret. The first
// access of Identity or SecretValue triggers a single fetch; the field
// set and resolved values are memoized for the instance's lifetime.
// OTP codes are recomputed on every access since they are time-bound.
//
// A Credential may be shared across goroutines; the fetch-once and
// memoization discipline is guarded internally.
type Credential struct {
	client    *Client
	spec      CredentialSpec
	requestID string
	now       func() time.Time

	mu       sync.Mutex
	fetched  *Secret
	identity *string
	secret   *string
}

// NewCredential validates the spec, applies slug defaults and returns
// an unresolved Credential. No network traffic happens until a value
// is first accessed.
func (c *Client) NewCredential(spec CredentialSpec) (*Credential, error) {
	if spec.SecretID <= 0 {
		return nil, ConfigError{Field: "secret ID", Message: "a positive secret ID is required"}
	}
	if spec.IdentitySlug == "" {
		spec.IdentitySlug = DefaultIdentitySlug
	}
	if spec.SecretSlug == "" {
		spec.SecretSlug = DefaultSecretSlug
	}
	if spec.OTPSlug == "" {
		spec.OTPSlug = DefaultOTPSlug
	}

	cred := &Credential{
		client:    c,
		spec:      spec,
		requestID: uuid.NewString(),
		now:       time.Now,
	}
	c.logger.Debug("credential request %s for secret %d", cred.requestID, spec.SecretID)
	return cred, nil
}

// RequestID returns the identifier assigned to this retrieval request,
// for correlating log lines.
func (cr *Credential) RequestID() string {
	return cr.requestID
}

// SecretID returns the secret this credential resolves.
func (cr *Credential) SecretID() int {
	return cr.spec.SecretID
}

// Identity resolves the identity value. The first access fetches the
// secret; later accesses return the memoized value without traffic.
// A missing identity slug yields FieldNotFoundError.
func (cr *Credential) Identity(ctx context.Context) (string, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.identity != nil {
		return *cr.identity, nil
	}

	secret, err := cr.fetch(ctx)
	if err != nil {
		return "", err
	}

	if slices.Contains(cr.spec.NameAsIdentityTemplates, secret.TemplateID) {
		cr.identity = &secret.Name
		return secret.Name, nil
	}

	field, ok := secret.Field(cr.spec.IdentitySlug)
	if !ok {
		return "", FieldNotFoundError{SecretID: cr.spec.SecretID, Slug: cr.spec.IdentitySlug}
	}
	cr.identity = &field.Value
	return field.Value, nil
}

// SecretValue resolves the secret value, sharing the same single fetch
// as Identity. A missing secret slug yields FieldNotFoundError.
func (cr *Credential) SecretValue(ctx context.Context) (string, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.secret != nil {
		return *cr.secret, nil
	}

	secret, err := cr.fetch(ctx)
	if err != nil {
		return "", err
	}

	field, ok := secret.Field(cr.spec.SecretSlug)
	if !ok {
		return "", FieldNotFoundError{SecretID: cr.spec.SecretID, Slug: cr.spec.SecretSlug}
	}
	cr.secret = &field.Value
	return field.Value, nil
}

// OTP computes the current time-based code from the stored seed. A
// secret without an OTP seed yields ("", nil). The code is recomputed
// on every access; only the seed comes from the memoized field set.
func (cr *Credential) OTP(ctx context.Context) (string, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	secret, err := cr.fetch(ctx)
	if err != nil {
		return "", err
	}

	field, ok := secret.Field(cr.spec.OTPSlug)
	if !ok || field.Value == "" {
		return "", nil
	}
	return totp.Generate(field.Value, cr.now())
}

// fetch performs the at-most-once secret retrieval. Callers hold
// cr.mu. A failed fetch leaves the instance unresolved so a later
// caller retry can succeed; a successful fetch is kept even when a
// later slug lookup misses.
func (cr *Credential) fetch(ctx context.Context) (*Secret, error) {
	if cr.fetched != nil {
		return cr.fetched, nil
	}
	secret, err := cr.client.Secret(ctx, cr.spec.SecretID)
	if err != nil {
		return nil, err
	}
	cr.fetched = secret
	return secret, nil
}
