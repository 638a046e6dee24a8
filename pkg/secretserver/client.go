// Package secretserver is a credential-retrieval client for the
// Delinea Secret Server REST API. It authenticates once via the OAuth2
// password grant, caches the bearer token across calls, refreshes it
// transparently before expiry, and exposes fetched secrets through the
// lazily-resolved Credential facade.
package secretserver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/systmms/sscreds/internal/logging"
	"github.com/systmms/sscreds/pkg/secure"
)

const (
	// DefaultTimeout bounds each HTTP request when the caller does not
	// configure one.
	DefaultTimeout = 30 * time.Second

	// DefaultSafetyMargin is subtracted from a token's lifetime so a
	// token is never handed out only to expire mid-request.
	DefaultSafetyMargin = 30 * time.Second
)

// Body markers the server uses instead of clean status codes on some
// deployments.
const (
	markerAccessDenied = "API_AccessDenied"
	markerExpiredToken = "Authentication failed or expired token"
)

// Config holds everything needed to construct a Client. BaseURL,
// Username and Password are required.
type Config struct {
	// BaseURL is the Secret Server root, e.g.
	// https://vault.example.com/SecretServer.
	BaseURL  string
	Username string
	Password *secure.String

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// SafetyMargin forces a token refresh this long before the real
	// expiry. Defaults to DefaultSafetyMargin.
	SafetyMargin time.Duration

	// CACert optionally points at a PEM bundle for a private CA.
	CACert string

	// InsecureSkipVerify disables TLS verification. Test use only.
	InsecureSkipVerify bool

	// Debug enables diagnostic logging to stderr. Secret values are
	// redacted.
	Debug bool
}

// Client talks to one Secret Server instance on behalf of one
// application account. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   *secure.String
	tokens     *tokenCache
	logger     *logging.Logger
}

// New validates cfg and builds a Client. Missing required values fail
// here with ConfigError, not at first use.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ConfigError{Field: "base URL", Message: "required value is empty"}
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ConfigError{Field: "base URL", Message: fmt.Sprintf("%q is not an absolute URL", cfg.BaseURL)}
	}
	if cfg.Username == "" {
		return nil, ConfigError{Field: "username", Message: "required value is empty"}
	}
	if cfg.Password == nil {
		return nil, ConfigError{Field: "password", Message: "required value is empty"}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	margin := cfg.SafetyMargin
	if margin == 0 {
		margin = DefaultSafetyMargin
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, ConfigError{Field: "CA certificate", Message: err.Error()}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, ConfigError{Field: "CA certificate", Message: "no certificates parsed from " + cfg.CACert}
		}
		transport.TLSClientConfig.RootCAs = pool
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		tokens:   newTokenCache(margin),
		logger:   logging.New(cfg.Debug, false),
	}, nil
}

// Validate checks that the configured account can authenticate. It
// forces a token exchange when none is cached.
func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.token(ctx); err != nil {
		return err
	}
	return nil
}

// Secret fetches a secret's ordered field list by numeric ID.
//
// A 404 (or an access-denied body) maps to NotFoundError. A 401 on the
// first attempt clears the cached token and retries exactly once with
// a fresh one, tolerating clock-skew-induced premature expiry; a
// second 401 is surfaced as AuthError. Network failures surface as
// TransportError and are not retried.
func (c *Client) Secret(ctx context.Context, id int) (*Secret, error) {
	if id <= 0 {
		return nil, ConfigError{Field: "secret ID", Message: fmt.Sprintf("%d is not a positive integer", id)}
	}

	retried := false
	for {
		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		secret, retriable, err := c.fetchSecret(ctx, id, token)
		if err == nil {
			return secret, nil
		}
		if retriable && !retried {
			c.logger.Debug("server rejected token for secret %d, refreshing and retrying once", id)
			c.tokens.clear()
			retried = true
			continue
		}
		return nil, err
	}
}

// token returns a currently-valid bearer token, refreshing through the
// cache when absent or within the safety margin of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	return c.tokens.get(ctx, c.exchange)
}

// exchange performs the OAuth2 password-grant token exchange.
func (c *Client) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.username)

	password, err := c.password.RevealString()
	if err != nil {
		return "", 0, &AuthError{Op: "exchange", Err: err}
	}
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &TransportError{Op: "exchange", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("exchanging credentials for token as %s", c.username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, &TransportError{Op: "exchange", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, &AuthError{
			Op:         "exchange",
			StatusCode: resp.StatusCode,
			Message:    logging.Redact(string(body), []string{password}),
		}
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", 0, &AuthError{Op: "exchange", Message: "malformed token response", Err: err}
	}
	if grant.AccessToken == "" {
		return "", 0, &AuthError{Op: "exchange", Message: "token response missing access_token"}
	}
	if grant.ExpiresIn <= 0 {
		return "", 0, &AuthError{Op: "exchange", Message: "token response missing expires_in"}
	}

	return grant.AccessToken, time.Duration(grant.ExpiresIn) * time.Second, nil
}

// fetchSecret issues one authenticated GET for the secret. The second
// return value reports whether the failure is the retriable
// rejected-token case.
func (c *Client) fetchSecret(ctx context.Context, id int, token string) (*Secret, bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/secrets/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, &TransportError{Op: "fetch", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, &TransportError{Op: "fetch", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &TransportError{Op: "fetch", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || strings.Contains(string(body), markerExpiredToken):
		return nil, true, &AuthError{
			Op:         "fetch",
			StatusCode: resp.StatusCode,
			Message:    "server rejected token",
		}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden || strings.Contains(string(body), markerAccessDenied):
		return nil, false, NotFoundError{SecretID: id}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, &APIError{Op: "fetch", StatusCode: resp.StatusCode, Message: string(body)}
	}

	var secret Secret
	if err := json.Unmarshal(body, &secret); err != nil {
		return nil, false, &DecodeError{Op: "fetch", Err: err}
	}
	if secret.ID == 0 && secret.Fields == nil {
		return nil, false, &DecodeError{Op: "fetch", Err: fmt.Errorf("response carries no secret")}
	}

	c.logger.Debug("fetched secret %d (%d fields)", id, len(secret.Fields))
	return &secret, false, nil
}
