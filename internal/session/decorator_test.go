package session_test

import (
	"testing"

	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/session"
	"github.com/raysh454/wlsession/internal/testutil"
)

// ─── Decoration ────────────────────────────────────────────────────────

func TestDecorate_AllThreeHeaders(t *testing.T) {
	t.Parallel()
	provider := &testutil.StubAuthorizationProvider{Header: "Bearer cached-token"}
	analytics := &testutil.StubAnalyticsProvider{Metadata: `{"appName":"test"}`}
	d := session.NewRequestDecorator(provider, analytics)

	req := model.NewRequest("GET", "https://example.com/api/data")
	out := d.Decorate(req)

	if got := out.Header(session.HeaderAuthorization); got != "Bearer cached-token" {
		t.Errorf("Authorization = %q, want cached token", got)
	}
	if out.Header(session.HeaderTrackingID) == "" {
		t.Errorf("tracking id header missing")
	}
	if got := out.Header(session.HeaderAnalyticsMetadata); got != `{"appName":"test"}` {
		t.Errorf("metadata header = %q", got)
	}
}

func TestDecorate_OriginalUntouched(t *testing.T) {
	t.Parallel()
	provider := &testutil.StubAuthorizationProvider{Header: "Bearer tok"}
	d := session.NewRequestDecorator(provider, &testutil.StubAnalyticsProvider{Metadata: "m"})

	req := model.NewRequest("POST", "https://example.com/upload")
	req.Headers.Set("Content-Type", "application/json")
	req.Body = []byte(`{"k":"v"}`)

	out := d.Decorate(req)

	if len(req.Headers) != 1 || req.Header("Content-Type") != "application/json" {
		t.Errorf("original headers changed: %v", req.Headers)
	}
	if string(req.Body) != `{"k":"v"}` {
		t.Errorf("original body changed: %q", req.Body)
	}
	if out.Method != req.Method || out.URL != req.URL || string(out.Body) != string(req.Body) {
		t.Errorf("decorated request differs beyond headers")
	}
	// decorated copy differs only by the documented additions
	if got := out.Header("Content-Type"); got != "application/json" {
		t.Errorf("caller header lost: %q", got)
	}
	if len(out.Headers) != 4 {
		t.Errorf("expected exactly 4 headers, got %v", out.Headers)
	}
}

func TestDecorate_TrackingIDUniquePerCall(t *testing.T) {
	t.Parallel()
	d := session.NewRequestDecorator(&testutil.StubAuthorizationProvider{}, nil)
	req := model.NewRequest("GET", "https://example.com")

	first := d.Decorate(req).Header(session.HeaderTrackingID)
	second := d.Decorate(req).Header(session.HeaderTrackingID)

	if first == "" || second == "" {
		t.Fatalf("tracking id missing: %q %q", first, second)
	}
	if first == second {
		t.Errorf("tracking id reused across decorations: %q", first)
	}
}

func TestDecorate_NoTokenProceedsUnauthenticated(t *testing.T) {
	t.Parallel()
	d := session.NewRequestDecorator(&testutil.StubAuthorizationProvider{}, nil)

	out := d.Decorate(model.NewRequest("GET", "https://example.com"))

	if out.Header(session.HeaderAuthorization) != "" {
		t.Errorf("Authorization set without a cached token")
	}
	if out.Header(session.HeaderTrackingID) == "" {
		t.Errorf("tracking id must be set even without a token")
	}
}

func TestDecorate_NoMetadataNoHeader(t *testing.T) {
	t.Parallel()
	d := session.NewRequestDecorator(&testutil.StubAuthorizationProvider{}, &testutil.StubAnalyticsProvider{})

	out := d.Decorate(model.NewRequest("GET", "https://example.com"))

	if out.Header(session.HeaderAnalyticsMetadata) != "" {
		t.Errorf("metadata header set while provider holds nothing")
	}
}
