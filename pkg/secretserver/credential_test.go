package secretserver_test

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/sscreds/pkg/secretserver"
	"github.com/systmms/sscreds/pkg/totp"
)

// RFC 6238 test seed, ASCII "12345678901234567890" in base32.
const otpSeed = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func secretBody(templateID int, fields ...map[string]any) map[string]any {
	return map[string]any{
		"id":               1234,
		"name":             "IAM - Service Account",
		"secretTemplateId": templateID,
		"items":            fields,
	}
}

func field(slug, value string) map[string]any {
	return map[string]any{"slug": slug, "fieldName": slug, "itemValue": value}
}

func TestNewCredentialRequiresPositiveID(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	client := newClient(t, f)

	_, err := client.NewCredential(secretserver.CredentialSpec{})
	var cfgErr secretserver.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCredentialRoundTripDefaults(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)
	assert.NotEmpty(t, cred.RequestID())
	assert.Equal(t, 1234, cred.SecretID())

	ident, err := cred.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", ident)

	secret, err := cred.SecretValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret)
}

func TestCredentialCustomSlugs(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6001,
			field("email", "a@b.com"),
			field("api_key", "xyz"),
		))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{
		SecretID:     1234,
		IdentitySlug: "email",
		SecretSlug:   "api_key",
	})
	require.NoError(t, err)

	ident, err := cred.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", ident)

	secret, err := cred.SecretValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xyz", secret)
}

func TestCredentialFetchesOnce(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	for range 3 {
		_, err := cred.Identity(context.Background())
		require.NoError(t, err)
	}
	_, err = cred.SecretValue(context.Background())
	require.NoError(t, err)
	_, err = cred.OTP(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.fetches.Load(), "one fetch serves every property")
}

func TestCredentialInstancesDoNotShareFetches(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	client := newClient(t, f)

	for range 2 {
		cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
		require.NoError(t, err)
		_, err = cred.Identity(context.Background())
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, f.fetches.Load(), "secrets are fetched fresh per instance")
}

func TestCredentialMissingIdentityLeavesSecretUsable(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6001, field("password", "s3cr3t")))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	_, err = cred.Identity(context.Background())
	var missing secretserver.FieldNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "username", missing.Slug)
	assert.Equal(t, 1234, missing.SecretID)

	secret, err := cred.SecretValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret)

	assert.EqualValues(t, 1, f.fetches.Load(), "failed slug lookup must not refetch")
}

func TestCredentialOTPAbsent(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	code, err := cred.OTP(context.Background())
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestCredentialOTPKnownAnswer(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6001,
			field("username", "alice"),
			field("totp", otpSeed),
		))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	at := time.Unix(59, 0).UTC()
	secretserver.SetCredentialClock(cred, func() time.Time { return at })

	code, err := cred.OTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "287082", code)

	// Codes are recomputed per access, not memoized.
	at = time.Unix(1111111109, 0).UTC()
	code, err = cred.OTP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "081804", code)

	assert.EqualValues(t, 1, f.fetches.Load(), "OTP reuses the memoized seed")
}

func TestCredentialOTPFormat(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6001, field("totp", otpSeed)))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	code, err := cred.OTP(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
}

func TestCredentialOTPInvalidSeed(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6001, field("totp", "not!base32!at!all")))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	_, err = cred.OTP(context.Background())
	var seedErr *totp.InvalidSeedError
	require.ErrorAs(t, err, &seedErr)
}

func TestCredentialNameAsIdentityTemplate(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, secretBody(6041, field("password", "s3cr3t")))
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{
		SecretID:                1234,
		NameAsIdentityTemplates: []int{6041, 6047},
	})
	require.NoError(t, err)

	ident, err := cred.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "IAM - Service Account", ident)
}

func TestCredentialFailedFetchIsRetriable(t *testing.T) {
	t.Parallel()

	f := newFakeServer(t)
	broken := true
	f.secretHandler = func(w http.ResponseWriter, r *http.Request) {
		if broken {
			http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, defaultSecretBody())
	}
	client := newClient(t, f)

	cred, err := client.NewCredential(secretserver.CredentialSpec{SecretID: 1234})
	require.NoError(t, err)

	_, err = cred.Identity(context.Background())
	var apiErr *secretserver.APIError
	require.ErrorAs(t, err, &apiErr)

	// The failure left no partial fetch behind; the caller's retry
	// succeeds once the server recovers.
	broken = false
	ident, err := cred.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", ident)
}
