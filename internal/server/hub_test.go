package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/overlay"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

func readCommand(t *testing.T, conn *websocket.Conn) Command {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var cmd Command
	if err := conn.ReadJSON(&cmd); err != nil {
		t.Fatalf("read error = %v", err)
	}
	return cmd
}

func TestHub_BroadcastsRendererCalls(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	var r overlay.Renderer = h
	s := overlay.Session{Code: 1, Asset: "1pose", Anchor: overlay.Point{X: 100, Y: 200}}

	r.Clear()
	r.Place(s, overlay.Rect{X: 100, Y: 200, W: 30, H: 30})
	r.Transition(s, overlay.PhaseGrow, overlay.Rect{X: 100, Y: 200, W: 150, H: 150}, overlay.PhaseDuration)

	if cmd := readCommand(t, conn); cmd.Op != "clear" {
		t.Errorf("first command = %+v, want clear", cmd)
	}

	place := readCommand(t, conn)
	if place.Op != "place" || place.Session == nil || place.Session.Asset != "1pose" {
		t.Errorf("place command = %+v", place)
	}
	if place.Frame == nil || *place.Frame != (overlay.Rect{X: 100, Y: 200, W: 30, H: 30}) {
		t.Errorf("place frame = %+v", place.Frame)
	}

	grow := readCommand(t, conn)
	if grow.Op != "transition" || grow.Phase != "grow" || grow.DurationMs != 500 {
		t.Errorf("transition command = %+v", grow)
	}
}

func TestHub_RemovesClosedClients(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client was not removed")
		}
		time.Sleep(time.Millisecond)
	}

	// Broadcasting with no clients must not block or panic.
	h.Clear()
}

func TestHub_NoClients(t *testing.T) {
	h := NewHub()
	h.Place(overlay.Session{}, overlay.Rect{})
	if h.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", h.Clients())
	}
}
