package session_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raysh454/wlsession/internal/authprovider"
	"github.com/raysh454/wlsession/internal/demoserver"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/session"
	"github.com/raysh454/wlsession/internal/testutil"
)

// Full round trip over real HTTP: no cached token, 401 + Bearer challenge,
// token obtained from the demo server, original request re-sent once with the
// fresh header, caller sees the retried response.
func TestEndToEnd_ChallengeRefreshRetry(t *testing.T) {
	t.Parallel()
	logger := logging.NewTestLogger(false)

	srv := demoserver.NewDemoServer(demoserver.DefaultConfig(), logger)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	providerCfg := authprovider.DefaultConfig()
	providerCfg.TokenURL = ts.URL + "/token"
	provider, err := authprovider.New(providerCfg, logger, ts.Client(), nil)
	if err != nil {
		t.Fatalf("authprovider.New: %v", err)
	}

	sess, err := session.New(session.Config{
		Authorization: provider,
		Analytics:     &testutil.StubAnalyticsProvider{Metadata: `{"appName":"e2e"}`},
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	defer sess.Close()

	if _, ok := provider.CachedAuthorizationHeader(); ok {
		t.Fatalf("provider should start with no cached token")
	}

	done := make(chan struct{})
	var got *model.Response
	var gotErr error
	req := model.NewRequest("GET", ts.URL+"/api/data")
	task, err := sess.DataTaskWithCompletion(context.Background(), req, func(resp *model.Response, err error) {
		got, gotErr = resp, err
		close(done)
	})
	if err != nil {
		t.Fatalf("DataTaskWithCompletion: %v", err)
	}
	task.Resume()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}

	if gotErr != nil {
		t.Fatalf("completion error: %v", gotErr)
	}
	if got.StatusCode != 200 {
		t.Fatalf("expected 200 after retry, got %d (body %s)", got.StatusCode, got.Body)
	}

	var payload struct {
		Message    string `json:"message"`
		TrackingID string `json:"tracking_id"`
		Metadata   string `json:"metadata"`
	}
	if err := json.Unmarshal(got.Body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// the retry is the undecorated original, so the server saw no tracking
	// id on the request that succeeded
	if payload.TrackingID != "" {
		t.Errorf("retried request unexpectedly decorated: tracking id %q", payload.TrackingID)
	}

	if header, ok := provider.CachedAuthorizationHeader(); !ok || header == "" {
		t.Errorf("provider should hold a fresh token after the flow")
	}

	// a second request goes straight through with the cached token
	done2 := make(chan struct{})
	var second *model.Response
	task2, err := sess.DataTaskWithCompletion(context.Background(), model.NewRequest("GET", ts.URL+"/api/data"), func(resp *model.Response, err error) {
		second = resp
		close(done2)
	})
	if err != nil {
		t.Fatalf("second DataTaskWithCompletion: %v", err)
	}
	task2.Resume()

	select {
	case <-done2:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for second completion")
	}
	if second.StatusCode != 200 {
		t.Errorf("second request should be authorized, got %d", second.StatusCode)
	}

	var payload2 struct {
		TrackingID string `json:"tracking_id"`
		Metadata   string `json:"metadata"`
	}
	if err := json.Unmarshal(second.Body, &payload2); err != nil {
		t.Fatalf("decode second body: %v", err)
	}
	if payload2.TrackingID == "" {
		t.Errorf("decorated request should carry a tracking id")
	}
	if payload2.Metadata != `{"appName":"e2e"}` {
		t.Errorf("metadata header not delivered: %q", payload2.Metadata)
	}
}
