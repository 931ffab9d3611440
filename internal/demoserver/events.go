package demoserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/wlsession/internal/logging"
)

// Event is one auth event pushed to websocket subscribers.
type Event struct {
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

// eventHub fans auth events out to connected websocket clients. Slow clients
// miss events rather than block the server.
type eventHub struct {
	logger logging.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newEventHub(logger logging.Logger) *eventHub {
	return &eventHub{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

func (h *eventHub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *eventHub) broadcast(ev Event) {
	ev.At = time.Now().UTC().Format(time.RFC3339)
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber buffer full; drop for this client
		}
	}
}

// handleEventsWS streams auth events to a websocket client until it
// disconnects.
func (s *DemoServer) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// demo server, open to the demo UI
			return true
		},
	}
	// subscribe before the handshake completes so no event can slip between
	// the client observing the upgrade and the subscription existing
	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				// Assume client disconnected
				return
			}
		}
	}
}
