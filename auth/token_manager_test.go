package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-talo/core"
)

type exchangeTransport struct {
	mu       sync.Mutex
	calls    atomic.Int32
	requests []core.TransportRequest
	respond  func(call int) (core.TransportResponse, error)
	gate     chan struct{}
	entered  chan struct{}
}

func (s *exchangeTransport) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	call := int(s.calls.Add(1))
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.respond(call)
}

func tokenResponse(token string) core.TransportResponse {
	body, _ := json.Marshal(map[string]any{
		"message": "ok",
		"data":    map[string]any{"token": token},
	})
	return core.TransportResponse{StatusCode: http.StatusOK, Body: body}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, transport core.Transport, clock *fakeClock) *TokenManager {
	t.Helper()
	manager, err := NewTokenManager(TokenManagerConfig{
		BaseURL: "https://api.talo.com.ar/",
		Credentials: ClientCredentials{
			ClientID:     "client_1",
			ClientSecret: "secret_1",
			UserID:       "user_1",
		},
		Headers:   map[string]string{"Authorization": "Bearer stale", "X-Tenant": "acme"},
		Transport: transport,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return manager
}

func TestTokenManager_ExchangesOnceAndReusesToken(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{respond: func(int) (core.TransportResponse, error) {
		return tokenResponse("opaque-token"), nil
	}}
	manager := newTestManager(t, transport, clock)

	for range 3 {
		token, err := manager.AccessToken(context.Background(), false)
		if err != nil {
			t.Fatalf("access token: %v", err)
		}
		if token != "opaque-token" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if transport.calls.Load() != 1 {
		t.Fatalf("expected one exchange, got %d", transport.calls.Load())
	}

	req := transport.requests[0]
	if req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if req.URL != "https://api.talo.com.ar/users/user_1/tokens" {
		t.Fatalf("unexpected token url %q", req.URL)
	}
	if req.Headers.Get(core.HeaderAuthorization) != "" {
		t.Fatalf("token exchange must not carry an authorization header")
	}
	if req.Headers.Get("X-Tenant") != "acme" {
		t.Fatalf("expected base headers on exchange")
	}
	var body map[string]string
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode exchange body: %v", err)
	}
	if body["client_id"] != "client_1" || body["client_secret"] != "secret_1" {
		t.Fatalf("unexpected exchange body %#v", body)
	}

	// Opaque tokens fall back to the configured lifetime.
	if want := clock.Now().Add(core.DefaultTokenTTL); !manager.ExpiresAt().Equal(want) {
		t.Fatalf("expected fallback expiry %s, got %s", want, manager.ExpiresAt())
	}
}

func TestTokenManager_RefreshesInsideWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{}
	transport.respond = func(call int) (core.TransportResponse, error) {
		return tokenResponse(signedToken(t, clock.Now().Add(120*time.Second))), nil
	}
	manager := newTestManager(t, transport, clock)

	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if want := clock.Now().Add(120 * time.Second).Truncate(time.Second); !manager.ExpiresAt().Equal(want) {
		t.Fatalf("expected exp claim expiry %s, got %s", want, manager.ExpiresAt())
	}
	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("second token: %v", err)
	}
	if transport.calls.Load() != 2 {
		t.Fatalf("expected refresh inside the window, got %d exchanges", transport.calls.Load())
	}
}

func TestTokenManager_KeepsTokenOutsideWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{}
	transport.respond = func(int) (core.TransportResponse, error) {
		return tokenResponse(signedToken(t, clock.Now().Add(30*time.Minute))), nil
	}
	manager := newTestManager(t, transport, clock)

	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("first token: %v", err)
	}
	clock.Advance(20 * time.Minute)
	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("second token: %v", err)
	}
	if transport.calls.Load() != 1 {
		t.Fatalf("expected cached token, got %d exchanges", transport.calls.Load())
	}
	clock.Advance(6 * time.Minute)
	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("third token: %v", err)
	}
	if transport.calls.Load() != 2 {
		t.Fatalf("expected refresh once within five minutes of expiry, got %d", transport.calls.Load())
	}
}

func TestTokenManager_CoalescesConcurrentRefreshes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
		// The issued token is already inside the refresh window, so a caller
		// that missed the pending exchange would start a second one.
		issued := signedToken(t, clock.Now().Add(time.Minute))
		transport := &exchangeTransport{
			gate: make(chan struct{}),
			respond: func(int) (core.TransportResponse, error) {
				return tokenResponse(issued), nil
			},
		}
		manager := newTestManager(t, transport, clock)

		const callers = 8
		results := make(chan string, callers)
		errs := make(chan error, callers)
		var wg sync.WaitGroup
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				token, err := manager.AccessToken(context.Background(), false)
				if err != nil {
					errs <- err
					return
				}
				results <- token
			}()
		}

		// Every caller is now blocked on the gated exchange or on its result.
		synctest.Wait()
		if got := transport.calls.Load(); got != 1 {
			t.Fatalf("expected one pending exchange before release, got %d", got)
		}
		close(transport.gate)
		wg.Wait()
		close(results)
		close(errs)

		for err := range errs {
			t.Fatalf("unexpected error: %v", err)
		}
		received := 0
		for token := range results {
			received++
			if token != issued {
				t.Fatalf("expected every caller to share the issued token, got %q", token)
			}
		}
		if received != callers {
			t.Fatalf("expected %d results, got %d", callers, received)
		}
		if transport.calls.Load() != 1 {
			t.Fatalf("expected a single exchange, got %d", transport.calls.Load())
		}
	})
}

func TestTokenManager_ForceRefreshIgnoresCache(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{respond: func(call int) (core.TransportResponse, error) {
		return tokenResponse(fmt.Sprintf("token-%d", call)), nil
	}}
	manager := newTestManager(t, transport, clock)

	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("first token: %v", err)
	}
	token, err := manager.AccessToken(context.Background(), true)
	if err != nil {
		t.Fatalf("forced token: %v", err)
	}
	if token != "token-2" {
		t.Fatalf("expected fresh token, got %q", token)
	}
	cached, err := manager.AccessToken(context.Background(), false)
	if err != nil || cached != "token-2" {
		t.Fatalf("expected refreshed token to be cached, got %q (%v)", cached, err)
	}
}

func TestTokenManager_NormalizesExchangeFailure(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{respond: func(int) (core.TransportResponse, error) {
		return core.TransportResponse{
			StatusCode: http.StatusUnauthorized,
			Headers:    http.Header{"X-Request-Id": []string{"req_auth"}},
			Body:       []byte(`{"message":"Invalid client credentials","code":"auth_error"}`),
		}, nil
	}}
	manager := newTestManager(t, transport, clock)

	_, err := manager.AccessToken(context.Background(), false)
	rich, ok := core.AsError(err)
	if !ok {
		t.Fatalf("expected normalized error, got %T %v", err, err)
	}
	if rich.Message != "Invalid client credentials" {
		t.Fatalf("unexpected message %q", rich.Message)
	}
	if core.StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", core.StatusCode(err))
	}
	if core.ErrorCode(err) != "auth_error" {
		t.Fatalf("expected auth_error code, got %#v", core.ErrorCode(err))
	}
	if core.RequestID(err) != "req_auth" {
		t.Fatalf("expected request id, got %q", core.RequestID(err))
	}
}

func TestTokenManager_RejectsUnexpectedShape(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{respond: func(int) (core.TransportResponse, error) {
		return core.TransportResponse{StatusCode: http.StatusOK, Body: []byte(`{"data":{}}`)}, nil
	}}
	manager := newTestManager(t, transport, clock)

	_, err := manager.AccessToken(context.Background(), false)
	if !core.IsUnexpectedResponse(err) {
		t.Fatalf("expected unexpected response error, got %v", err)
	}
	rich, _ := core.AsError(err)
	if rich.Message != core.MessageUnexpectedAuthResponse {
		t.Fatalf("unexpected message %q", rich.Message)
	}
	if core.StatusCode(err) != http.StatusOK {
		t.Fatalf("expected received status 200, got %d", core.StatusCode(err))
	}
	if core.RawBody(err) != `{"data":{}}` {
		t.Fatalf("expected raw body, got %q", core.RawBody(err))
	}
}

func TestTokenManager_TransportErrorPropagates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	netErr := errors.New("dial tcp: connection refused")
	transport := &exchangeTransport{respond: func(int) (core.TransportResponse, error) {
		return core.TransportResponse{}, netErr
	}}
	manager := newTestManager(t, transport, clock)

	if _, err := manager.AccessToken(context.Background(), false); !errors.Is(err, netErr) {
		t.Fatalf("expected transport error unchanged, got %v", err)
	}
}

func TestTokenManager_CancelledCallerDoesNotAbortRefresh(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	transport := &exchangeTransport{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
		respond: func(int) (core.TransportResponse, error) {
			return tokenResponse("shared-token"), nil
		},
	}
	manager := newTestManager(t, transport, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := manager.AccessToken(ctx, false)
		done <- err
	}()
	<-transport.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller, got %v", err)
	}

	waiter := make(chan string, 1)
	go func() {
		token, _ := manager.AccessToken(context.Background(), false)
		waiter <- token
	}()
	close(transport.gate)
	if token := <-waiter; token != "shared-token" {
		t.Fatalf("expected refresh to complete for other callers, got %q", token)
	}
	if transport.calls.Load() != 1 {
		t.Fatalf("expected the cancelled refresh to be reused, got %d exchanges", transport.calls.Load())
	}
}

func TestNewTokenManager_RequiresCredentials(t *testing.T) {
	_, err := NewTokenManager(TokenManagerConfig{
		BaseURL:     "https://api.talo.com.ar",
		Credentials: ClientCredentials{ClientID: "c"},
		Transport:   &exchangeTransport{},
	})
	if err == nil {
		t.Fatalf("expected incomplete credentials to be rejected")
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	ttl := time.Hour

	if got, ok := TokenExpiry("not-a-jwt", now, ttl); ok || !got.Equal(now.Add(ttl)) {
		t.Fatalf("expected fallback for opaque token, got %s %v", got, ok)
	}
	if got, ok := TokenExpiry(signedToken(t, now.Add(-time.Minute)), now, ttl); ok || !got.Equal(now.Add(ttl)) {
		t.Fatalf("expected fallback for expired claim, got %s %v", got, ok)
	}
	exp := now.Add(10 * time.Minute)
	if got, ok := TokenExpiry(signedToken(t, exp), now, ttl); !ok || !got.Equal(exp) {
		t.Fatalf("expected exp claim, got %s %v", got, ok)
	}
	if got, ok := TokenExpiry("a.b.c", now, ttl); ok || !got.Equal(now.Add(ttl)) {
		t.Fatalf("expected fallback for undecodable segments, got %s %v", got, ok)
	}
}

func TestTokenExpiry_IgnoresHeader(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	exp := now.Add(10 * time.Minute)
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":"user_1","exp":%d}`, exp.Unix())))

	cases := map[string]string{
		"no alg":       base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT"}`)),
		"unknown alg":  base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XX999"}`)),
		"garbage head": "not-json",
	}
	for name, header := range cases {
		token := header + "." + payload + ".signature"
		got, ok := TokenExpiry(token, now, time.Hour)
		if !ok || !got.Equal(exp) {
			t.Fatalf("%s: expected exp claim %s, got %s %v", name, exp, got, ok)
		}
	}
}

func TestTokenManager_UsesExpiryOfTokenWithoutAlg(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	exp := clock.Now().Add(10 * time.Minute)
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp.Unix())))
	token := base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT"}`)) + "." + payload + ".sig"
	transport := &exchangeTransport{respond: func(int) (core.TransportResponse, error) {
		return tokenResponse(token), nil
	}}
	manager := newTestManager(t, transport, clock)

	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("access token: %v", err)
	}
	if !manager.ExpiresAt().Equal(exp) {
		t.Fatalf("expected cache expiry from exp claim %s, got %s", exp, manager.ExpiresAt())
	}
	clock.Advance(6 * time.Minute)
	if _, err := manager.AccessToken(context.Background(), false); err != nil {
		t.Fatalf("access token: %v", err)
	}
	if transport.calls.Load() != 2 {
		t.Fatalf("expected refresh inside the window of the real expiry, got %d exchanges", transport.calls.Load())
	}
}

func TestStaticCredentials(t *testing.T) {
	if _, err := NewStaticCredentials("  "); err == nil {
		t.Fatalf("expected empty token to be rejected")
	}
	creds, err := NewStaticCredentials("test_token")
	if err != nil {
		t.Fatalf("new static credentials: %v", err)
	}
	token, err := creds.AccessToken(context.Background(), true)
	if err != nil || token != "test_token" {
		t.Fatalf("unexpected static token %q (%v)", token, err)
	}
}
