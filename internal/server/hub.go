package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/overlay"
)

// clientBuffer is the number of commands queued per client. A client that
// falls further behind is disconnected.
const clientBuffer = 16

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Command is one overlay instruction sent to browser clients.
type Command struct {
	Op         string           `json:"op"` // clear, place or transition
	Session    *overlay.Session `json:"session,omitempty"`
	Phase      string           `json:"phase,omitempty"`
	Frame      *overlay.Rect    `json:"frame,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
}

// Hub is an overlay.Renderer that broadcasts every visual change to the
// connected WebSocket clients. Renderer calls never block on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub with no clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]struct{})}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Clear() {
	h.broadcast(Command{Op: "clear"})
}

func (h *Hub) Place(s overlay.Session, frame overlay.Rect) {
	h.broadcast(Command{Op: "place", Session: &s, Frame: &frame})
}

func (h *Hub) Transition(s overlay.Session, phase overlay.Phase, frame overlay.Rect, d time.Duration) {
	h.broadcast(Command{
		Op:         "transition",
		Session:    &s,
		Phase:      phase.String(),
		Frame:      &frame,
		DurationMs: d.Milliseconds(),
	})
}

func (h *Hub) broadcast(cmd Command) {
	msg, err := json.Marshal(cmd)
	if err != nil {
		log.Printf("overlay command encode error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ServeHTTP upgrades the request and streams commands to the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) writePump(c *hubClient) {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
