package model

import (
	"net/http"
	"time"
)

// Request is an immutable outbound request description. Decoration and retry
// work on clones; a Request handed to the session is never mutated.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	// Body is an optional in-memory payload.
	Body []byte
	// BodyFile, when non-empty, names a file to stream as the payload.
	// Body and BodyFile are mutually exclusive; BodyFile wins if both are set.
	BodyFile string
}

// Response captures the result of one exchange.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	ReceivedAt time.Time
}

// NewRequest builds a Request with an initialized header map.
func NewRequest(method, url string) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(http.Header),
	}
}

// Clone returns a deep copy of the request. Headers are copied so the clone
// can be annotated without the original observing the change.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		Method:   r.Method,
		URL:      r.URL,
		BodyFile: r.BodyFile,
	}
	if r.Body != nil {
		out.Body = make([]byte, len(r.Body))
		copy(out.Body, r.Body)
	}
	out.Headers = make(http.Header, len(r.Headers))
	for k, vs := range r.Headers {
		out.Headers[k] = append([]string(nil), vs...)
	}
	return out
}

// Header returns the named request header or "" when unset.
func (r *Request) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// Header returns the named response header or "" when unset.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}
