package secretserver

import (
	"context"
	"sync"
	"time"
)

// tokenCache holds the current bearer token and its expiry. The
// refresh callback runs with the mutex held, so at most one exchange
// is in flight at a time and concurrent callers wait for it rather
// than issuing their own. Tokens are never persisted to disk.
type tokenCache struct {
	margin time.Duration
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenCache(margin time.Duration) *tokenCache {
	return &tokenCache{margin: margin, now: time.Now}
}

// get returns the held token when it is still valid, defined as now
// being before expiry minus the safety margin. Otherwise it runs
// refresh and replaces token and expiry atomically.
func (c *tokenCache) get(ctx context.Context, refresh func(ctx context.Context) (string, time.Duration, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt.Add(-c.margin)) {
		return c.token, nil
	}

	token, ttl, err := refresh(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = c.now().Add(ttl)
	return token, nil
}

// clear drops the held token, forcing the next get to refresh. Used
// when the server rejects a token the cache still believed valid.
func (c *tokenCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}
