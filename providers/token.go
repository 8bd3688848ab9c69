package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/reelworth/reelworth_api/shared"
)

// DefaultTokenTTL is assumed when the provider omits expires_in.
const DefaultTokenTTL = 2 * time.Hour

// TokenMargin is subtracted from a token's nominal lifetime so a token is
// never used at the edge of expiry.
const TokenMargin = 5 * time.Minute

// Token is an access token with its lifecycle bounds. Expired tokens are
// replaced, never mutated in place.
type Token struct {
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenCache performs the client-credentials grant lazily and caches the
// result for the process lifetime. Concurrent callers during a refresh share
// a single in-flight exchange; the mutex guards only in-memory state, never
// the HTTP round-trip.
type TokenCache struct {
	cfg    clientcredentials.Config
	margin time.Duration

	mu       sync.Mutex
	token    *Token
	inflight chan struct{}

	now func() time.Time
}

func NewTokenCache(clientID, clientSecret, tokenURL string, scopes ...string) *TokenCache {
	return &TokenCache{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		margin: TokenMargin,
		now:    time.Now,
	}
}

// Token returns a cached token while it is inside its safety margin, or
// performs at most one credential exchange shared by all concurrent callers.
// Exchange failures surface as an auth error; there is no fallback to a stale
// token.
func (tc *TokenCache) Token(ctx context.Context) (*Token, error) {
	for {
		tc.mu.Lock()
		if t := tc.token; t != nil && tc.now().Before(t.ExpiresAt) {
			tc.mu.Unlock()
			return t, nil
		}

		if tc.inflight != nil {
			done := tc.inflight
			tc.mu.Unlock()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-done:
			}
			// Refresh settled; re-check the cache. A failed refresh leaves the
			// cache empty and the next iteration starts a new exchange.
			tc.mu.Lock()
			if t := tc.token; t != nil && tc.now().Before(t.ExpiresAt) {
				tc.mu.Unlock()
				return t, nil
			}
			tc.mu.Unlock()
			return nil, shared.NewAuthError(nil, "credential exchange failed")
		}

		done := make(chan struct{})
		tc.inflight = done
		tc.mu.Unlock()

		token, err := tc.exchange(ctx)

		tc.mu.Lock()
		tc.token = token
		tc.inflight = nil
		close(done)
		tc.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return token, nil
	}
}

func (tc *TokenCache) exchange(ctx context.Context) (*Token, error) {
	tok, err := tc.cfg.TokenSource(ctx).Token()
	if err != nil {
		return nil, shared.NewAuthError(err, "credential exchange failed")
	}

	issued := tc.now()
	expires := tok.Expiry
	if expires.IsZero() {
		expires = issued.Add(DefaultTokenTTL)
	}

	return &Token{
		AccessToken: tok.AccessToken,
		IssuedAt:    issued,
		ExpiresAt:   expires.Add(-tc.margin),
	}, nil
}

// Invalidate drops the cached token so the next caller re-exchanges.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.token = nil
	tc.mu.Unlock()
}
