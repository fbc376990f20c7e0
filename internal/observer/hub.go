// Package observer is the Observer Push Channel: it bridges
// internal/eventlog's Subscribe fan-out onto gorilla/websocket connections,
// one bounded outbound queue per observer, dropping on overflow rather than
// blocking the event log's publisher. Bounded-per-subscriber-queue shape is
// a direct generalization of the teacher's internal/engine/simulation.go
// Subscribe/EmitEvent channel pattern onto a network transport.
package observer

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/eventlog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub upgrades incoming HTTP connections to websockets and fans out public
// events to each one independently.
type Hub struct {
	Events *eventlog.Log
	Log    zerolog.Logger

	QueueSize int

	mu   sync.Mutex
	next int
}

// NewHub constructs a Hub bridging events into websocket connections, each
// with an outbound queue of queueSize events.
func NewHub(events *eventlog.Log, log zerolog.Logger, queueSize int) *Hub {
	if queueSize < 1 {
		queueSize = 64
	}
	return &Hub{Events: events, Log: log, QueueSize: queueSize}
}

// ServeHTTP upgrades the connection and streams public events to it until
// the client disconnects or the log subscription is torn down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn().Err(err).Msg("observer: websocket upgrade failed")
		return
	}
	defer conn.Close()

	subID, ch := h.Events.Subscribe(h.QueueSize)
	defer h.Events.Unsubscribe(subID)

	// Detect client-initiated close without blocking the write loop.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
	}
}
