// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/transport"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Authorization provider ────────────────────────────────────────────

// StubAuthorizationProvider implements auth.AuthorizationProvider with
// scripted behavior.
type StubAuthorizationProvider struct {
	mu sync.Mutex

	// Header is returned by CachedAuthorizationHeader when non-empty.
	Header string

	// Required, when nil, treats every 401 as a challenge. Otherwise it is
	// consulted verbatim.
	Required func(statusCode int, wwwAuthenticate string) bool

	// ObtainStatus and ObtainErr script the outcome of ObtainAuthorization.
	// On a 2xx ObtainStatus, RefreshedHeader replaces Header before the
	// callback is invoked.
	ObtainStatus    int
	ObtainErr       error
	RefreshedHeader string

	ObtainCalls int
}

func (p *StubAuthorizationProvider) CachedAuthorizationHeader() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Header == "" {
		return "", false
	}
	return p.Header, true
}

func (p *StubAuthorizationProvider) IsAuthorizationRequired(statusCode int, wwwAuthenticate string) bool {
	if p.Required != nil {
		return p.Required(statusCode, wwwAuthenticate)
	}
	return statusCode == http.StatusUnauthorized
}

func (p *StubAuthorizationProvider) ObtainAuthorization(_ context.Context, onComplete auth.Completion) {
	p.mu.Lock()
	p.ObtainCalls++
	var resp *model.Response
	err := p.ObtainErr
	if err == nil {
		resp = &model.Response{StatusCode: p.ObtainStatus, ReceivedAt: time.Now()}
		if p.ObtainStatus >= 200 && p.ObtainStatus < 300 {
			p.Header = p.RefreshedHeader
		}
	}
	p.mu.Unlock()

	if onComplete != nil {
		onComplete(resp, err)
	}
}

// Calls returns how many times ObtainAuthorization was invoked.
func (p *StubAuthorizationProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ObtainCalls
}

// ─── Analytics provider ────────────────────────────────────────────────

// StubAnalyticsProvider implements auth.AnalyticsProvider.
type StubAnalyticsProvider struct {
	Metadata string
}

func (p *StubAnalyticsProvider) CurrentMetadata() (string, bool) {
	if p.Metadata == "" {
		return "", false
	}
	return p.Metadata, true
}

// ─── Transport session ─────────────────────────────────────────────────

// Scripted is one canned transport outcome.
type Scripted struct {
	Resp *model.Response
	Err  error
}

// RecordingSession implements transport.Session. It records every request it
// is handed and plays back Script entries in order; once the script runs out
// it answers 200 with body "ok". Completions run synchronously on Resume,
// which keeps tests deterministic.
type RecordingSession struct {
	mu          sync.Mutex
	Requests    []*model.Request
	UploadData  [][]byte
	UploadFiles []string
	Script      []Scripted
}

func (s *RecordingSession) next(req *model.Request) (*model.Response, error) {
	if len(s.Script) > 0 {
		out := s.Script[0]
		s.Script = s.Script[1:]
		if out.Resp != nil && out.Resp.Request == nil {
			out.Resp.Request = req
		}
		return out.Resp, out.Err
	}
	return &model.Response{
		Request:    req,
		StatusCode: 200,
		Body:       []byte("ok"),
		Headers:    make(http.Header),
		ReceivedAt: time.Now(),
	}, nil
}

func (s *RecordingSession) newTask(req *model.Request, completion auth.Completion) transport.Task {
	return &scriptedTask{sess: s, req: req, completion: completion}
}

func (s *RecordingSession) DataTask(_ context.Context, req *model.Request, completion auth.Completion) (transport.Task, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	return s.newTask(req, completion), nil
}

func (s *RecordingSession) UploadTask(_ context.Context, req *model.Request, data []byte, completion auth.Completion) (transport.Task, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.UploadData = append(s.UploadData, data)
	s.mu.Unlock()
	return s.newTask(req, completion), nil
}

func (s *RecordingSession) UploadTaskFromFile(_ context.Context, req *model.Request, path string, completion auth.Completion) (transport.Task, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.UploadFiles = append(s.UploadFiles, path)
	s.mu.Unlock()
	return s.newTask(req, completion), nil
}

func (s *RecordingSession) Close() error { return nil }

// Recorded returns a snapshot of the requests seen so far.
func (s *RecordingSession) Recorded() []*model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Request, len(s.Requests))
	copy(out, s.Requests)
	return out
}

type scriptedTask struct {
	sess       *RecordingSession
	req        *model.Request
	completion auth.Completion
	once       sync.Once
}

func (t *scriptedTask) Resume() {
	t.once.Do(func() {
		t.sess.mu.Lock()
		resp, err := t.sess.next(t.req)
		t.sess.mu.Unlock()
		if t.completion != nil {
			t.completion(resp, err)
		}
	})
}

func (t *scriptedTask) Cancel() {}
