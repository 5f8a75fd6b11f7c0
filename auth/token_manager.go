// Package auth provides the credential providers used by the request
// executor: a static bearer token and a token manager that exchanges client
// credentials for short-lived tokens.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-talo/core"
	"github.com/goliatone/go-talo/schema"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "talo.token"

type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	UserID       string
}

func (c ClientCredentials) complete() bool {
	return strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != "" &&
		strings.TrimSpace(c.UserID) != ""
}

type TokenManagerConfig struct {
	BaseURL       string
	Credentials   ClientCredentials
	Headers       map[string]string
	Transport     core.Transport
	RefreshWindow time.Duration
	TokenTTL      time.Duration
	Logger        core.Logger
	Now           func() time.Time
}

// TokenManager caches one access token and refreshes it through the token
// exchange endpoint. At most one exchange is in flight at a time; concurrent
// callers share its result.
type TokenManager struct {
	config TokenManagerConfig
	logger core.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewTokenManager(cfg TokenManagerConfig) (*TokenManager, error) {
	if cfg.Transport == nil {
		return nil, core.NewDependencyError("auth: token manager requires a transport")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, core.NewConfigError("auth: token manager requires a base url")
	}
	if !cfg.Credentials.complete() {
		return nil, core.NewConfigError("auth: client_id, client_secret and user_id are required")
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = core.DefaultRefreshWindow
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = core.DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	cfg.Credentials = ClientCredentials{
		ClientID:     strings.TrimSpace(cfg.Credentials.ClientID),
		ClientSecret: strings.TrimSpace(cfg.Credentials.ClientSecret),
		UserID:       strings.TrimSpace(cfg.Credentials.UserID),
	}
	return &TokenManager{
		config: cfg,
		logger: core.ResolveLogger("talo.auth", nil, cfg.Logger),
	}, nil
}

// AccessToken returns the cached token while it is outside the refresh
// window. Cancelling ctx stops the wait only; a refresh already started runs
// to completion and still updates the cache.
func (m *TokenManager) AccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	if m == nil {
		return "", core.NewDependencyError("auth: token manager is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !forceRefresh {
		if token, ok := m.cached(); ok {
			return token, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	result := m.group.DoChan(refreshKey, func() (any, error) {
		// A refresh may have landed between the cache check and this flight.
		if !forceRefresh {
			if token, ok := m.cached(); ok {
				return token, nil
			}
		}
		return m.refresh(detached)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// ExpiresAt reports the expiry of the cached token, zero when none is held.
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

// Invalidate drops the cached token so the next call exchanges credentials.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", false
	}
	if m.expiresAt.IsZero() {
		return m.token, true
	}
	if m.config.Now().Add(m.config.RefreshWindow).Before(m.expiresAt) {
		return m.token, true
	}
	return "", false
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	request := schema.TokenRequest{
		ClientID:     m.config.Credentials.ClientID,
		ClientSecret: m.config.Credentials.ClientSecret,
	}
	if err := request.Validate(); err != nil {
		return "", core.NewInvalidRequestError(err)
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return "", core.NewInvalidRequestError(err)
	}

	headers := core.MergeHeaders(true, m.config.Headers)
	headers.Del(core.HeaderAuthorization)
	headers.Set(core.HeaderAccept, core.MediaTypeJSON)
	headers.Set(core.HeaderContentType, core.MediaTypeJSON)

	path := "/users/" + url.PathEscape(m.config.Credentials.UserID) + "/tokens"
	res, err := m.config.Transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     core.JoinURL(m.config.BaseURL, path),
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		core.Log(ctx, m.logger, core.LevelError, "talo token exchange failed", map[string]any{
			"user_id": m.config.Credentials.UserID,
			"error":   err.Error(),
		})
		return "", err
	}

	var envelope schema.TokenEnvelope
	if err := core.DecodeResponse(res, &envelope, core.MessageUnexpectedAuthResponse); err != nil {
		core.Log(ctx, m.logger, core.LevelError, "talo token exchange rejected", map[string]any{
			"user_id":    m.config.Credentials.UserID,
			"status":     res.StatusCode,
			"request_id": res.RequestID(),
		})
		return "", err
	}

	now := m.config.Now()
	token := strings.TrimSpace(envelope.Data.Token)
	expiresAt, fromClaim := TokenExpiry(token, now, m.config.TokenTTL)

	m.mu.Lock()
	m.token = token
	m.expiresAt = expiresAt
	m.mu.Unlock()

	core.Log(ctx, m.logger, core.LevelDebug, "talo token refreshed", map[string]any{
		"user_id":      m.config.Credentials.UserID,
		"expires_at":   expiresAt.Format(time.RFC3339),
		"expiry_claim": fromClaim,
	})
	return token, nil
}

var _ core.CredentialProvider = (*TokenManager)(nil)
