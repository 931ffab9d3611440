package session

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/model"
)

// Header names injected into outgoing requests. These are wire contract and
// must match the paired backend exactly.
const (
	HeaderAuthorization     = "Authorization"
	HeaderTrackingID        = "x-wl-analytics-tracking-id"
	HeaderAnalyticsMetadata = "x-mfp-analytics-metadata"

	headerWWWAuthenticate = "WWW-Authenticate"
)

// RequestDecorator annotates outgoing requests with authorization and
// analytics headers. Providers are injected at construction; there is no
// ambient shared state.
type RequestDecorator struct {
	authorization auth.AuthorizationProvider
	analytics     auth.AnalyticsProvider
}

// NewRequestDecorator creates a decorator. authorization is required;
// analytics may be nil, in which case no metadata header is ever set.
func NewRequestDecorator(authorization auth.AuthorizationProvider, analytics auth.AnalyticsProvider) *RequestDecorator {
	return &RequestDecorator{
		authorization: authorization,
		analytics:     analytics,
	}
}

// Decorate returns a copy of req with the session headers applied. The
// original request is never touched, so callers keep a pristine value for
// the retry path.
//
// The tracking id is freshly generated on every call; the authorization and
// metadata headers are set only when their providers currently hold a value.
func (d *RequestDecorator) Decorate(req *model.Request) *model.Request {
	out := req.Clone()
	if out.Headers == nil {
		out.Headers = make(http.Header)
	}

	if header, ok := d.authorization.CachedAuthorizationHeader(); ok {
		out.Headers.Set(HeaderAuthorization, header)
	}

	out.Headers.Set(HeaderTrackingID, uuid.NewString())

	if d.analytics != nil {
		if metadata, ok := d.analytics.CurrentMetadata(); ok {
			out.Headers.Set(HeaderAnalyticsMetadata, metadata)
		}
	}

	return out
}
