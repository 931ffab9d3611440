// Package session implements the authorizing HTTP session facade: it
// decorates outgoing requests with authorization and analytics headers,
// delegates task execution to a transport session, and re-issues a request
// once when the response carries an authentication challenge.
package session

import (
	"context"
	"fmt"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/transport"
)

// Config holds the collaborators a Session is built from. Authorization is
// required; everything else has a default.
type Config struct {
	// Authorization owns the token cache and refresh flow.
	Authorization auth.AuthorizationProvider

	// Analytics supplies optional per-request metadata.
	Analytics auth.AnalyticsProvider

	// Transport executes tasks. When nil the session constructs its own
	// net/http backed transport.
	Transport transport.Session

	// Delegate receives task lifecycle callbacks. Only honored when the
	// session constructs its own transport; an externally supplied Transport
	// carries its own delegate wiring.
	Delegate transport.SessionDelegate

	Logger logging.Logger

	// OnAuthorizationFailure receives the outcome of a failed
	// reauthorization attempt. Optional; failures are always logged.
	OnAuthorizationFailure auth.Completion
}

// Session is the task-dispatch facade callers interact with.
type Session struct {
	transport     transport.Session
	decorator     *RequestDecorator
	provider      auth.AuthorizationProvider
	logger        logging.Logger
	onFailure     auth.Completion
	ownsTransport bool
}

// New creates a Session from cfg.
func New(cfg Config) (*Session, error) {
	if cfg.Authorization == nil {
		return nil, fmt.Errorf("authorization provider is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("session")
	}

	ts := cfg.Transport
	owns := false
	if ts == nil {
		tcfg := transport.DefaultConfig()
		tcfg.Delegate = &ForwardingDelegate{Next: cfg.Delegate, Logger: logger}
		built, err := transport.NewNetHTTPSession(tcfg, logger, nil)
		if err != nil {
			return nil, fmt.Errorf("create transport session: %w", err)
		}
		ts = built
		owns = true
	}

	return &Session{
		transport:     ts,
		decorator:     NewRequestDecorator(cfg.Authorization, cfg.Analytics),
		provider:      cfg.Authorization,
		logger:        logger,
		onFailure:     cfg.OnAuthorizationFailure,
		ownsTransport: owns,
	}, nil
}

// DataTask creates a fire-and-forget task for req. The request is decorated;
// with no completion callback there is nothing to intercept, so challenge
// responses are not handled on this path.
func (s *Session) DataTask(ctx context.Context, req *model.Request) (transport.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	return s.transport.DataTask(ctx, s.decorator.Decorate(req), nil)
}

// DataTaskWithCompletion creates a task for req and arranges for completion
// to receive the outcome. A challenge response is intercepted and replaced by
// the single reauthorization-and-retry flow; anything else reaches completion
// verbatim.
func (s *Session) DataTaskWithCompletion(ctx context.Context, req *model.Request, completion auth.Completion) (transport.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	resubmit := func(rctx context.Context, r *model.Request, c auth.Completion) error {
		task, err := s.transport.DataTask(rctx, r, c)
		if err != nil {
			return err
		}
		task.Resume()
		return nil
	}
	wrapped := s.wrapCompletion(ctx, req.Clone(), resubmit, completion)
	return s.transport.DataTask(ctx, s.decorator.Decorate(req), wrapped)
}

// UploadTask creates a task sending data as the body of req. completion may
// be nil.
func (s *Session) UploadTask(ctx context.Context, req *model.Request, data []byte, completion auth.Completion) (transport.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	resubmit := func(rctx context.Context, r *model.Request, c auth.Completion) error {
		task, err := s.transport.UploadTask(rctx, r, data, c)
		if err != nil {
			return err
		}
		task.Resume()
		return nil
	}
	wrapped := s.wrapCompletion(ctx, req.Clone(), resubmit, completion)
	return s.transport.UploadTask(ctx, s.decorator.Decorate(req), data, wrapped)
}

// UploadTaskFromFile creates a task streaming the named file as the body of
// req. completion may be nil.
func (s *Session) UploadTaskFromFile(ctx context.Context, req *model.Request, path string, completion auth.Completion) (transport.Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	resubmit := func(rctx context.Context, r *model.Request, c auth.Completion) error {
		task, err := s.transport.UploadTaskFromFile(rctx, r, path, c)
		if err != nil {
			return err
		}
		task.Resume()
		return nil
	}
	wrapped := s.wrapCompletion(ctx, req.Clone(), resubmit, completion)
	return s.transport.UploadTaskFromFile(ctx, s.decorator.Decorate(req), path, wrapped)
}

// Close releases the transport when the session owns it.
func (s *Session) Close() error {
	if !s.ownsTransport {
		return nil
	}
	return s.transport.Close()
}

// wrapCompletion interposes challenge handling between the transport and the
// caller's completion. original must be the pristine, undecorated request so
// the retry can be built from it.
func (s *Session) wrapCompletion(ctx context.Context, original *model.Request, resubmit resubmitFunc, completion auth.Completion) auth.Completion {
	if completion == nil {
		return nil
	}
	return func(resp *model.Response, err error) {
		if err == nil && IsAuthorizationChallenge(resp, s.provider) {
			s.logger.Debug("authorization challenge detected",
				logging.Field{Key: "url", Value: original.URL},
				logging.Field{Key: "status", Value: resp.StatusCode})
			handler := newChallengeHandler(s.provider, resubmit, s.onFailure, s.logger)
			handler.resolve(ctx, original, completion)
			return
		}
		completion(resp, err)
	}
}
