package crm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const defaultExpirySkew = time.Minute

// RefreshFunc obtains a fresh access token for key.
type RefreshFunc func(ctx context.Context, key string) (*oauth2.Token, error)

// TokenCache memoizes access tokens per key and refreshes them shortly before they
// expire. Concurrent callers for the same key share one refresh.
type TokenCache struct {
	mu      sync.Mutex
	tokens  map[string]*oauth2.Token
	refresh RefreshFunc
	skew    time.Duration
	now     func() time.Time
	group   singleflight.Group
}

// NewTokenCache creates a cache that refreshes through refresh.
func NewTokenCache(refresh RefreshFunc) *TokenCache {
	return &TokenCache{
		tokens:  make(map[string]*oauth2.Token),
		refresh: refresh,
		skew:    defaultExpirySkew,
		now:     time.Now,
	}
}

// Get returns a valid access token for key, refreshing it when absent or about to expire.
func (c *TokenCache) Get(ctx context.Context, key string) (string, error) {
	if tok, ok := c.cached(key); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if tok, ok := c.cached(key); ok {
			return tok, nil
		}
		fresh, err := c.refresh(ctx, key)
		if err != nil {
			return "", fmt.Errorf("refresh token for %s: %w", key, err)
		}
		if fresh == nil || fresh.AccessToken == "" {
			return "", errors.New("refresh returned no access token")
		}
		c.mu.Lock()
		c.tokens[key] = fresh
		c.mu.Unlock()
		return fresh.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token for key, e.g. after the server rejected it.
func (c *TokenCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
}

func (c *TokenCache) cached(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, ok := c.tokens[key]
	if !ok {
		return "", false
	}
	// A zero expiry means the token does not expire.
	if !tok.Expiry.IsZero() && !c.now().Add(c.skew).Before(tok.Expiry) {
		return "", false
	}
	return tok.AccessToken, true
}

// OAuthRefresher exchanges a long-lived refresh token for access tokens with the
// refresh-token grant. The key is ignored: one credential serves every caller.
func OAuthRefresher(cfg *oauth2.Config, refreshToken string) RefreshFunc {
	return func(ctx context.Context, _ string) (*oauth2.Token, error) {
		return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	}
}
