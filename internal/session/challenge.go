package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
)

// IsAuthorizationChallenge reports whether resp is an authentication
// challenge the provider can answer. Pure classification: each precondition
// is checked independently and no state is touched.
func IsAuthorizationChallenge(resp *model.Response, provider auth.AuthorizationProvider) bool {
	if resp == nil {
		return false
	}
	wwwAuthenticate := resp.Header(headerWWWAuthenticate)
	if wwwAuthenticate == "" {
		return false
	}
	return provider.IsAuthorizationRequired(resp.StatusCode, wwwAuthenticate)
}

// resubmitFunc re-issues a request through the transport session, bypassing
// decoration and challenge interception.
type resubmitFunc func(ctx context.Context, req *model.Request, completion auth.Completion) error

type handlerState int

const (
	stateIdle handlerState = iota
	stateAwaitingAuthorization
	stateResolved
)

// challengeHandler drives a single reauthorization-and-retry cycle for one
// original request. It is created per challenge and never reused.
type challengeHandler struct {
	provider  auth.AuthorizationProvider
	resubmit  resubmitFunc
	onFailure auth.Completion
	logger    logging.Logger

	mu    sync.Mutex
	state handlerState
}

func newChallengeHandler(provider auth.AuthorizationProvider, resubmit resubmitFunc, onFailure auth.Completion, logger logging.Logger) *challengeHandler {
	return &challengeHandler{
		provider:  provider,
		resubmit:  resubmit,
		onFailure: onFailure,
		logger:    logger,
		state:     stateIdle,
	}
}

// resolve asks the provider for fresh authorization and, on success, re-sends
// the original undecorated request exactly once with the refreshed header.
// The retry is never re-checked for a further challenge: if the refreshed
// token is itself rejected, the caller receives that rejection as final.
func (h *challengeHandler) resolve(ctx context.Context, original *model.Request, completion auth.Completion) {
	h.mu.Lock()
	if h.state != stateIdle {
		h.mu.Unlock()
		return
	}
	h.state = stateAwaitingAuthorization
	h.mu.Unlock()

	var once sync.Once
	h.provider.ObtainAuthorization(ctx, func(resp *model.Response, err error) {
		once.Do(func() {
			h.complete(ctx, original, completion, resp, err)
		})
	})
}

func (h *challengeHandler) complete(ctx context.Context, original *model.Request, completion auth.Completion, resp *model.Response, err error) {
	h.mu.Lock()
	h.state = stateResolved
	h.mu.Unlock()

	if err != nil || resp == nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		h.logger.Error("reauthorization failed",
			logging.Field{Key: "url", Value: original.URL},
			logging.Field{Key: "status", Value: status},
			logging.Field{Key: "error", Value: errString(err)})
		if h.onFailure != nil {
			h.onFailure(resp, err)
		}
		return
	}

	retry := original.Clone()
	if header, ok := h.provider.CachedAuthorizationHeader(); ok {
		retry.Headers.Set(HeaderAuthorization, header)
	}

	h.logger.Debug("resubmitting request after reauthorization",
		logging.Field{Key: "url", Value: retry.URL})

	if rerr := h.resubmit(ctx, retry, completion); rerr != nil {
		h.logger.Error("resubmission failed",
			logging.Field{Key: "url", Value: retry.URL},
			logging.Field{Key: "error", Value: rerr.Error()})
		if h.onFailure != nil {
			h.onFailure(nil, fmt.Errorf("resubmit after reauthorization: %w", rerr))
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
