package transport

import (
	"context"
	"net/http"

	"github.com/raysh454/wlsession/internal/auth"
	"github.com/raysh454/wlsession/internal/model"
)

// Task is a handle to one pending exchange. Construction never performs I/O;
// Resume starts it. Resume after the first call is a no-op.
type Task interface {
	Resume()

	// Cancel aborts an in-flight task. Cancellation semantics beyond
	// interrupting the exchange belong to the implementation.
	Cancel()
}

// Session is the underlying networking engine: it turns requests into tasks
// and owns connections, TLS, pooling and callback scheduling. The library
// core treats it as opaque.
type Session interface {
	// DataTask creates a task for a request carrying its own (possibly empty)
	// body. completion may be nil for fire-and-forget use.
	DataTask(ctx context.Context, req *model.Request, completion auth.Completion) (Task, error)

	// UploadTask creates a task sending data as the request body.
	UploadTask(ctx context.Context, req *model.Request, data []byte, completion auth.Completion) (Task, error)

	// UploadTaskFromFile creates a task streaming the named file as the body.
	UploadTaskFromFile(ctx context.Context, req *model.Request, path string, completion auth.Completion) (Task, error)

	Close() error
}

// SessionDelegate receives task lifecycle callbacks. All methods are optional
// in spirit: implementations that only care about completion can embed
// NopDelegate.
type SessionDelegate interface {
	// TaskDidReceiveResponse is called once response status and headers are
	// available, before the body has been read.
	TaskDidReceiveResponse(task Task, statusCode int, headers http.Header)

	// TaskDidReceiveData is called with the response body.
	TaskDidReceiveData(task Task, data []byte)

	// TaskDidComplete is called exactly once when the exchange finishes,
	// with either a response or an error.
	TaskDidComplete(task Task, resp *model.Response, err error)
}

// NopDelegate implements SessionDelegate with no-ops, for embedding.
type NopDelegate struct{}

func (NopDelegate) TaskDidReceiveResponse(Task, int, http.Header) {}
func (NopDelegate) TaskDidReceiveData(Task, []byte)               {}
func (NopDelegate) TaskDidComplete(Task, *model.Response, error)  {}
