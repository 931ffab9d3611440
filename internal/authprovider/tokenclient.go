// Package authprovider holds the reference AuthorizationProvider: a client
// for a bearer-token endpoint with an in-memory cache and optional SQLite
// persistence. The session core only ever sees the auth interfaces; this
// package is one implementation of them.
package authprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/tokenstore"
)

// Config holds construction options for TokenClient.
type Config struct {
	// TokenURL is the endpoint POSTed to by ObtainAuthorization.
	TokenURL string

	// ClientID identifies this client to the token endpoint.
	ClientID string

	// Scope keys the persisted token in the store. Defaults to "default".
	Scope string

	// Timeout applies to the token endpoint client when one is not supplied.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Scope:   "default",
		Timeout: 15 * time.Second,
	}
}

// tokenResponse is the wire shape of a successful token grant.
type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenClient implements auth.AuthorizationProvider against a token
// endpoint. The cached header is guarded by a mutex: the session core reads
// it concurrently with refreshes and never locks on its own.
type TokenClient struct {
	cfg        Config
	httpClient *http.Client
	store      *tokenstore.Store
	logger     logging.Logger

	mu        sync.Mutex
	header    string
	expiresAt time.Time
}

// New creates a TokenClient. store may be nil to disable persistence; when
// present, a previously persisted unexpired token is loaded so a restarted
// client does not reauthorize needlessly.
func New(cfg Config, logger logging.Logger, httpClient *http.Client, store *tokenstore.Store) (*TokenClient, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("token URL is required")
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultConfig().Scope
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultConfig().Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	componentLogger := logger.With(logging.Field{Key: "component", Value: "authprovider"})

	tc := &TokenClient{
		cfg:        cfg,
		httpClient: httpClient,
		store:      store,
		logger:     componentLogger,
	}

	if store != nil {
		tok, err := store.Load(context.Background(), cfg.Scope)
		switch {
		case err == nil && time.Now().Before(tok.ExpiresAt):
			tc.header = tok.Header
			tc.expiresAt = tok.ExpiresAt
			componentLogger.Info("restored persisted token",
				logging.Field{Key: "scope", Value: cfg.Scope},
				logging.Field{Key: "expires_at", Value: tok.ExpiresAt.UTC().Format(time.RFC3339)})
		case err != nil && !errors.Is(err, tokenstore.ErrNotFound):
			componentLogger.Warn("failed to load persisted token",
				logging.Field{Key: "scope", Value: cfg.Scope},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	return tc, nil
}

// CachedAuthorizationHeader returns the cached header unless it is absent or
// expired.
func (tc *TokenClient) CachedAuthorizationHeader() (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.header == "" {
		return "", false
	}
	if !tc.expiresAt.IsZero() && !time.Now().Before(tc.expiresAt) {
		return "", false
	}
	return tc.header, true
}

// IsAuthorizationRequired recognizes bearer challenges on 401 and 403
// responses. Scheme/realm syntax beyond the scheme word is not interpreted.
func (tc *TokenClient) IsAuthorizationRequired(statusCode int, wwwAuthenticate string) bool {
	if statusCode != http.StatusUnauthorized && statusCode != http.StatusForbidden {
		return false
	}
	scheme := strings.TrimSpace(wwwAuthenticate)
	return strings.HasPrefix(strings.ToLower(scheme), "bearer")
}

// ObtainAuthorization requests a fresh token from the endpoint and invokes
// onComplete exactly once with the endpoint's response. The new header is
// cached (and persisted when a store is configured) before the callback runs,
// so the caller can re-read the cache immediately.
func (tc *TokenClient) ObtainAuthorization(ctx context.Context, onComplete auth.Completion) {
	go func() {
		resp, err := tc.requestToken(ctx)
		if onComplete != nil {
			onComplete(resp, err)
		}
	}()
}

func (tc *TokenClient) requestToken(ctx context.Context) (*model.Response, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if tc.cfg.ClientID != "" {
		form.Set("client_id", tc.cfg.ClientID)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := tc.httpClient.Do(httpReq)
	if err != nil {
		tc.logger.Warn("token request failed",
			logging.Field{Key: "url", Value: tc.cfg.TokenURL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	resp := &model.Response{
		Headers:    httpResp.Header,
		Body:       body,
		StatusCode: httpResp.StatusCode,
		ReceivedAt: time.Now(),
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		tc.logger.Warn("token endpoint rejected request",
			logging.Field{Key: "status", Value: httpResp.StatusCode})
		return resp, nil
	}

	var grant tokenResponse
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	if grant.TokenType == "" {
		grant.TokenType = "Bearer"
	}

	header := grant.TokenType + " " + grant.AccessToken
	expiresAt := time.Time{}
	if grant.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}

	tc.mu.Lock()
	tc.header = header
	tc.expiresAt = expiresAt
	tc.mu.Unlock()

	if tc.store != nil {
		if err := tc.store.Save(ctx, tc.cfg.Scope, tokenstore.Token{Header: header, ExpiresAt: expiresAt}); err != nil {
			tc.logger.Warn("failed to persist token",
				logging.Field{Key: "scope", Value: tc.cfg.Scope},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	tc.logger.Info("obtained authorization",
		logging.Field{Key: "token_type", Value: grant.TokenType},
		logging.Field{Key: "expires_in", Value: grant.ExpiresIn})

	return resp, nil
}
