package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/lixenwraith/collide/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of every frame sent to stream clients
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// client is one websocket subscriber of a run
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots of one run out to its websocket clients
// Render is called on the simulation goroutine and never blocks: frames beyond the rate limit
// are skipped and clients with a full buffer miss the frame
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	limiter *rate.Limiter
	logger  *log.Logger
	closed  bool
	dropped uint64
}

// NewHub limits broadcast frames to fps per second
func NewHub(fps int, logger *log.Logger) *Hub {
	if fps < 1 {
		fps = 1
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		logger:  logger,
	}
}

// Render implements engine.Renderer
func (h *Hub) Render(snap engine.Snapshot) {
	if h.Len() == 0 || !h.limiter.Allow() {
		return
	}
	h.broadcast(snap)
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(snap engine.Snapshot) {
	data, err := encode("snapshot", snap)
	if err != nil {
		h.logger.Error("marshal snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
			h.logger.Debug("stream client buffer full, dropping frame", "time", snap.Time)
		}
	}
}

// Serve upgrades the request and streams to it until the peer goes away or the hub closes
// initial is sent first so a new client does not wait for the next redraw
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial engine.Snapshot) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	first, err := encode("snapshot", initial)
	if err != nil {
		conn.Close()
		return err
	}
	c.send <- first

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Close disconnects every client; later Serve calls return immediately
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards inbound frames and detects disconnects
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream read", "remote", c.conn.RemoteAddr(), "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("stream write", "remote", c.conn.RemoteAddr(), "err", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: kind, Data: data})
}
