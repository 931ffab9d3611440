// Package auth declares the collaborator interfaces the session core depends
// on. Implementations live elsewhere (authprovider, analytics, test doubles);
// the core only ever consumes these, injected at construction time.
package auth

import (
	"context"

	"github.com/raysh454/wlsession/internal/model"
)

// Completion is the callback shape used throughout the library: exactly one
// of resp or err is meaningful, matching the (response?, error?) contract.
type Completion func(resp *model.Response, err error)

// AuthorizationProvider owns token caching and refresh. The session core
// never mutates the cache; it only triggers ObtainAuthorization and re-reads
// the cached header afterward. Thread safety of the cache is the provider's
// responsibility.
type AuthorizationProvider interface {
	// CachedAuthorizationHeader returns the current cached Authorization
	// header value, if one exists. Absence is not an error.
	CachedAuthorizationHeader() (string, bool)

	// IsAuthorizationRequired reports whether a response with the given
	// status code and WWW-Authenticate header value constitutes a challenge
	// this provider can answer.
	IsAuthorizationRequired(statusCode int, wwwAuthenticate string) bool

	// ObtainAuthorization refreshes the cached authorization asynchronously
	// and invokes onComplete exactly once with the outcome.
	ObtainAuthorization(ctx context.Context, onComplete Completion)
}

// AnalyticsProvider supplies the optional per-request analytics metadata.
type AnalyticsProvider interface {
	// CurrentMetadata returns the metadata string to attach to outgoing
	// requests, if any is currently available.
	CurrentMetadata() (string, bool)
}
