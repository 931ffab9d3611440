package session

import (
	"net/http"

	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/transport"
)

// ForwardingDelegate implements the full transport delegate capability set
// and forwards every callback to the caller-supplied Next delegate. Nothing
// is ever silently dropped: callbacks the session has no special interest in
// still reach Next untouched.
type ForwardingDelegate struct {
	Next   transport.SessionDelegate
	Logger logging.Logger
}

func (d *ForwardingDelegate) TaskDidReceiveResponse(task transport.Task, statusCode int, headers http.Header) {
	if d.Next != nil {
		d.Next.TaskDidReceiveResponse(task, statusCode, headers)
	}
}

func (d *ForwardingDelegate) TaskDidReceiveData(task transport.Task, data []byte) {
	if d.Next != nil {
		d.Next.TaskDidReceiveData(task, data)
	}
}

func (d *ForwardingDelegate) TaskDidComplete(task transport.Task, resp *model.Response, err error) {
	if err != nil && d.Logger != nil {
		d.Logger.Debug("task completed with error",
			logging.Field{Key: "error", Value: err.Error()})
	}
	if d.Next != nil {
		d.Next.TaskDidComplete(task, resp, err)
	}
}
