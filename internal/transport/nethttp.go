package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
)

// net/http backed implementation of Session.
type NetHTTPSession struct {
	client   *http.Client
	delegate SessionDelegate
	logger   logging.Logger
}

func NewNetHTTPSession(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPSession, error) {
	// Create component-scoped logger
	componentLogger := logger.With(logging.Field{Key: "component", Value: "nethttp-session"})

	// If httpClient is nil, construct a sensible default from cfg
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultConfig().Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	componentLogger.Info("created nethttp session",
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()})

	return &NetHTTPSession{
		client:   httpClient,
		delegate: cfg.Delegate,
		logger:   componentLogger,
	}, nil
}

// DataTask creates (but does not start) a task for req.
func (s *NetHTTPSession) DataTask(ctx context.Context, req *model.Request, completion auth.Completion) (Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	return s.newTask(ctx, req.Clone(), completion), nil
}

// UploadTask creates a task sending data as the body of req.
func (s *NetHTTPSession) UploadTask(ctx context.Context, req *model.Request, data []byte, completion auth.Completion) (Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	r := req.Clone()
	r.Body = append([]byte(nil), data...)
	r.BodyFile = ""
	return s.newTask(ctx, r, completion), nil
}

// UploadTaskFromFile creates a task streaming the named file as the body.
func (s *NetHTTPSession) UploadTaskFromFile(ctx context.Context, req *model.Request, path string, completion auth.Completion) (Task, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if path == "" {
		return nil, fmt.Errorf("empty upload file path")
	}
	r := req.Clone()
	r.Body = nil
	r.BodyFile = path
	return s.newTask(ctx, r, completion), nil
}

func (s *NetHTTPSession) Close() error {
	s.logger.Info("closing nethttp session")
	s.client.CloseIdleConnections()
	return nil
}

func (s *NetHTTPSession) newTask(ctx context.Context, req *model.Request, completion auth.Completion) *httpTask {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	return &httpTask{
		sess:       s,
		req:        req,
		completion: completion,
		ctx:        taskCtx,
		cancel:     cancel,
	}
}

// do executes one exchange synchronously.
func (s *NetHTTPSession) do(ctx context.Context, task Task, req *model.Request) (*model.Response, error) {
	method := strings.ToUpper(req.Method)

	s.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: req.URL})

	var bodyReader io.Reader
	switch {
	case req.BodyFile != "":
		f, err := os.Open(req.BodyFile)
		if err != nil {
			return nil, fmt.Errorf("open upload file: %w", err)
		}
		defer f.Close()
		bodyReader = f
	case len(req.Body) > 0:
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if req.Headers != nil {
		for k, vs := range req.Headers {
			for _, v := range vs {
				httpReq.Header.Add(k, v)
			}
		}
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Warn("http request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if s.delegate != nil {
		s.delegate.TaskDidReceiveResponse(task, resp.StatusCode, resp.Header)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("failed to read response body",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("read body: %w", err)
	}
	if s.delegate != nil && len(body) > 0 {
		s.delegate.TaskDidReceiveData(task, body)
	}

	return &model.Response{
		Request:    req,
		Body:       body,
		Headers:    resp.Header,
		StatusCode: resp.StatusCode,
		ReceivedAt: time.Now(),
	}, nil
}

// httpTask is the Task produced by NetHTTPSession. Resume runs the exchange
// on its own goroutine and fires the delegate plus the completion callback.
type httpTask struct {
	sess       *NetHTTPSession
	req        *model.Request
	completion auth.Completion
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
}

func (t *httpTask) Resume() {
	t.once.Do(func() {
		go t.run()
	})
}

func (t *httpTask) Cancel() {
	t.cancel()
}

func (t *httpTask) run() {
	resp, err := t.sess.do(t.ctx, t, t.req)
	if t.sess.delegate != nil {
		t.sess.delegate.TaskDidComplete(t, resp, err)
	}
	if t.completion != nil {
		t.completion(resp, err)
	}
}
