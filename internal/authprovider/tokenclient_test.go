package authprovider_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/wlsession/internal/authprovider"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/tokenstore"
)

func tokenServer(t *testing.T, status int, payload any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token endpoint hit with %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func newClient(t *testing.T, ts *httptest.Server, store *tokenstore.Store) *authprovider.TokenClient {
	t.Helper()
	cfg := authprovider.DefaultConfig()
	cfg.TokenURL = ts.URL
	cfg.ClientID = "test-client"
	tc, err := authprovider.New(cfg, logging.NewTestLogger(false), ts.Client(), store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tc
}

func obtain(t *testing.T, tc *authprovider.TokenClient) (*model.Response, error) {
	t.Helper()
	done := make(chan struct{})
	var resp *model.Response
	var err error
	tc.ObtainAuthorization(context.Background(), func(r *model.Response, e error) {
		resp, err = r, e
		close(done)
	})
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for ObtainAuthorization")
	}
	return resp, err
}

func TestObtainAuthorization_CachesHeader(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 200, map[string]any{
		"token_type":   "Bearer",
		"access_token": "abc123",
		"expires_in":   3600,
	})
	defer ts.Close()

	tc := newClient(t, ts, nil)
	if _, ok := tc.CachedAuthorizationHeader(); ok {
		t.Fatalf("cache should start empty")
	}

	resp, err := obtain(t, tc)
	if err != nil {
		t.Fatalf("ObtainAuthorization: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("callback status %d", resp.StatusCode)
	}

	header, ok := tc.CachedAuthorizationHeader()
	if !ok || header != "Bearer abc123" {
		t.Errorf("cached header = %q, ok=%v", header, ok)
	}
}

func TestObtainAuthorization_Non2xxReportedNotCached(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 404, map[string]any{"error": "no such client"})
	defer ts.Close()

	tc := newClient(t, ts, nil)
	resp, err := obtain(t, tc)
	if err != nil {
		t.Fatalf("a non-2xx grant is a response, not an error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("callback status %d", resp.StatusCode)
	}
	if _, ok := tc.CachedAuthorizationHeader(); ok {
		t.Errorf("failed grant must not populate the cache")
	}
}

func TestObtainAuthorization_TransportError(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 200, nil)
	ts.Close() // connection refused from now on

	cfg := authprovider.DefaultConfig()
	cfg.TokenURL = ts.URL
	tc, err := authprovider.New(cfg, logging.NewTestLogger(false), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := obtain(t, tc)
	if err == nil {
		t.Fatalf("expected transport error, got resp %+v", resp)
	}
}

func TestCachedAuthorizationHeader_HonorsExpiry(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 200, map[string]any{
		"access_token": "shortlived",
		"expires_in":   1,
	})
	defer ts.Close()

	tc := newClient(t, ts, nil)
	if _, err := obtain(t, tc); err != nil {
		t.Fatalf("ObtainAuthorization: %v", err)
	}
	if header, ok := tc.CachedAuthorizationHeader(); !ok || header != "Bearer shortlived" {
		t.Fatalf("fresh token not cached: %q ok=%v", header, ok)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, ok := tc.CachedAuthorizationHeader(); ok {
		t.Errorf("expired token still served")
	}
}

func TestIsAuthorizationRequired(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 200, nil)
	defer ts.Close()
	tc := newClient(t, ts, nil)

	cases := []struct {
		name   string
		status int
		header string
		want   bool
	}{
		{"bearer 401", 401, `Bearer realm="x"`, true},
		{"bearer 403", 403, "Bearer", true},
		{"basic 401", 401, `Basic realm="x"`, false},
		{"bearer 500", 500, "Bearer", false},
		{"empty header 401", 401, "", false},
		{"lowercase scheme", 401, "bearer", true},
	}
	for _, tt := range cases {
		if got := tc.IsAuthorizationRequired(tt.status, tt.header); got != tt.want {
			t.Errorf("%s: IsAuthorizationRequired(%d, %q) = %v", tt.name, tt.status, tt.header, got)
		}
	}
}

func TestPersistence_RestoresTokenAcrossClients(t *testing.T) {
	t.Parallel()
	ts := tokenServer(t, 200, map[string]any{
		"access_token": "persisted",
		"expires_in":   3600,
	})
	defer ts.Close()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store, err := tokenstore.New(db, logging.NewTestLogger(false))
	if err != nil {
		t.Fatalf("tokenstore.New: %v", err)
	}

	first := newClient(t, ts, store)
	if _, err := obtain(t, first); err != nil {
		t.Fatalf("ObtainAuthorization: %v", err)
	}

	// a second client over the same store starts warm
	second := newClient(t, ts, store)
	header, ok := second.CachedAuthorizationHeader()
	if !ok || header != "Bearer persisted" {
		t.Errorf("persisted token not restored: %q ok=%v", header, ok)
	}
}

func TestNew_RequiresTokenURL(t *testing.T) {
	t.Parallel()
	_, err := authprovider.New(authprovider.Config{}, logging.NewTestLogger(false), nil, nil)
	if err == nil {
		t.Errorf("expected error without token URL")
	}
}
