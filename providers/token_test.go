package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelworth/reelworth_api/shared"
)

func newTokenServer(t *testing.T, exchanges *int64, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(exchanges, 1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":7200}`))
	}))
}

func TestTokenCacheSingleFlight(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges, http.StatusOK)
	defer srv.Close()

	tc := NewTokenCache("client-id", "client-secret", srv.URL+"/token")

	const callers = 50
	var wg sync.WaitGroup
	tokens := make([]*Token, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = tc.Token(context.Background())
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt64(&exchanges); got != 1 {
		t.Fatalf("expected exactly 1 credential exchange, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if tokens[i].AccessToken != "tok-abc" {
			t.Fatalf("caller %d: unexpected token %q", i, tokens[i].AccessToken)
		}
		if !tokens[i].IssuedAt.Equal(tokens[0].IssuedAt) {
			t.Fatalf("caller %d received a different token generation", i)
		}
	}
}

func TestTokenCacheReusesUntilMargin(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges, http.StatusOK)
	defer srv.Close()

	tc := NewTokenCache("client-id", "client-secret", srv.URL+"/token")
	base := time.Now()
	tc.now = func() time.Time { return base }

	first, err := tc.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Still well inside the 2h-minus-margin lifetime.
	tc.now = func() time.Time { return base.Add(time.Hour) }
	second, err := tc.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatal("expected the cached token while inside the safety margin")
	}
	if got := atomic.LoadInt64(&exchanges); got != 1 {
		t.Fatalf("expected 1 exchange, got %d", got)
	}

	// Inside the final 5 minutes the token counts as expired.
	tc.now = func() time.Time { return base.Add(2*time.Hour - 4*time.Minute) }
	third, err := tc.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Fatal("expected a fresh token once the safety margin is reached")
	}
	if got := atomic.LoadInt64(&exchanges); got != 2 {
		t.Fatalf("expected 2 exchanges, got %d", got)
	}
}

func TestTokenCacheExchangeFailure(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges, http.StatusUnauthorized)
	defer srv.Close()

	tc := NewTokenCache("client-id", "bad-secret", srv.URL+"/token")
	_, err := tc.Token(context.Background())
	if err == nil {
		t.Fatal("expected an error from a rejected exchange")
	}
	var appErr *shared.AppError
	if !errors.As(err, &appErr) || appErr.Kind != shared.KindAuth {
		t.Fatalf("expected an auth error, got %v", err)
	}

	// The failure is not cached: the next call tries again.
	_, _ = tc.Token(context.Background())
	if got := atomic.LoadInt64(&exchanges); got != 2 {
		t.Fatalf("expected a retry after failure, got %d exchanges", got)
	}
}

func TestTokenCacheInvalidate(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges, http.StatusOK)
	defer srv.Close()

	tc := NewTokenCache("client-id", "client-secret", srv.URL+"/token")
	if _, err := tc.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	tc.Invalidate()
	if _, err := tc.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&exchanges); got != 2 {
		t.Fatalf("expected a new exchange after Invalidate, got %d", got)
	}
}
