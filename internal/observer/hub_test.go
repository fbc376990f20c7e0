package observer

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/eventlog"
)

func TestHubStreamsPublicEvents(t *testing.T) {
	events := eventlog.New()
	hub := NewHub(events, zerolog.Nop(), 8)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the server goroutine a moment to register its subscription
	// before the event is recorded, since Subscribe only sees events
	// published after it runs.
	time.Sleep(50 * time.Millisecond)

	events.Record(1, eventlog.KindSocial, 1, 2, "a public announcement", eventlog.VisibilityPublic)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got eventlog.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Summary != "a public announcement" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestHubDoesNotStreamPrivateEvents(t *testing.T) {
	events := eventlog.New()
	hub := NewHub(events, zerolog.Nop(), 8)

	srv := httptest.NewServer(hub)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	events.Record(1, eventlog.KindSocial, 1, 2, "a private remark", eventlog.VisibilityPrivate)
	events.Record(1, eventlog.KindSocial, 1, 2, "a public announcement", eventlog.VisibilityPublic)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got eventlog.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Summary != "a public announcement" {
		t.Fatalf("expected only the public event to reach the observer, got %+v", got)
	}
}
