// Package demoserver is a small authorization server used to exercise the
// session end to end: it issues bearer tokens, challenges unauthorized
// requests, and streams auth events over a websocket for demo visibility.
package demoserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/raysh454/wlsession/internal/logging"
)

// DemoServer issues tokens from /token and serves protected resources under
// /api. Requests without a known, unexpired bearer token get a 401 with a
// WWW-Authenticate challenge.
type DemoServer struct {
	cfg    Config
	router chi.Router
	logger logging.Logger
	hub    *eventHub

	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if cfg.Realm == "" {
		cfg.Realm = DefaultConfig().Realm
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("demoserver")
	}

	s := &DemoServer{
		cfg:    cfg,
		logger: logger,
		hub:    newEventHub(logger),
		tokens: make(map[string]time.Time),
	}
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	r := chi.NewRouter()

	r.Post("/token", s.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/data", s.handleData)
		r.Post("/api/echo", s.handleEcho)
		r.Post("/api/upload", s.handleUpload)
	})

	r.Get("/ws/events", s.handleEventsWS)

	s.router = r
}

// Handler exposes the router, mainly for httptest in the demo and tests.
func (s *DemoServer) Handler() http.Handler {
	return s.router
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo server starting", logging.Field{Key: "addr", Value: addr})
	return http.ListenAndServe(addr, s.router)
}

// handleToken issues a fresh bearer token.
func (s *DemoServer) handleToken(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()
	expiry := time.Now().Add(s.cfg.TokenTTL)

	s.mu.Lock()
	s.tokens[token] = expiry
	s.mu.Unlock()

	s.logger.Info("issued token", logging.Field{Key: "expires_at", Value: expiry.UTC().Format(time.RFC3339)})
	s.hub.broadcast(Event{Type: "token_issued", Detail: "bearer token granted"})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token_type":   "Bearer",
		"access_token": token,
		"expires_in":   int(s.cfg.TokenTTL.Seconds()),
	})
}

// requireToken admits requests carrying a known unexpired bearer token and
// challenges everything else.
func (s *DemoServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok {
			s.mu.Lock()
			expiry, known := s.tokens[token]
			s.mu.Unlock()
			if known && time.Now().Before(expiry) {
				s.hub.broadcast(Event{Type: "authorized", Detail: r.Method + " " + r.URL.Path})
				next.ServeHTTP(w, r)
				return
			}
		}

		s.logger.Debug("challenging request",
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "has_header", Value: header != ""})
		s.hub.broadcast(Event{Type: "challenge", Detail: r.Method + " " + r.URL.Path})

		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Bearer realm=%q", s.cfg.Realm))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// handleData returns a payload that echoes the analytics headers so the demo
// can show what the session injected.
func (s *DemoServer) handleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":     "hello from the demo server",
		"tracking_id": r.Header.Get("x-wl-analytics-tracking-id"),
		"metadata":    r.Header.Get("x-mfp-analytics-metadata"),
	})
}

func (s *DemoServer) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
	_, _ = w.Write(body)
}

func (s *DemoServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	n, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"received_bytes": n})
}
