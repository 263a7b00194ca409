package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/netviz/netviz/pkg/types"
	"github.com/netviz/netviz/server/internal/query"
	"github.com/netviz/netviz/server/internal/refresh"
	"github.com/netviz/netviz/server/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection
	// as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Event names.
const (
	EventSnapshot = "snapshot"
	EventRefresh  = "refresh"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string  `json:"event"`
	Data  Summary `json:"data"`
}

// Summary describes the snapshot a client should be showing.
type Summary struct {
	Generation uint64         `json:"generation"`
	Networks   int            `json:"networks"`
	LoadedAt   *time.Time     `json:"loaded_at,omitempty"`
	Stats      types.Stats    `json:"stats"`
	Refresh    *RefreshResult `json:"refresh,omitempty"`
}

// RefreshResult is the outcome of the cycle that triggered a refresh message.
type RefreshResult struct {
	CycleID string `json:"cycle_id"`
	Kind    string `json:"kind"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// Hub manages WebSocket clients and broadcasts snapshot summaries.
type Hub struct {
	store    *store.Store
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

var _ refresh.Observer = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and broadcasts every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run broadcasts the current summary every interval. It blocks until ctx is
// cancelled, then closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(h.summary(EventSnapshot, nil))
		}
	}
}

// Observe pushes the outcome of a refresh cycle to every client. Skipped
// reloads changed nothing and are not sent.
func (h *Hub) Observe(ev refresh.Event) {
	if ev.Skipped {
		return
	}
	res := &RefreshResult{CycleID: ev.CycleID, Kind: ev.Kind, OK: ev.OK()}
	if ev.Err != nil {
		res.Error = ev.Err.Error()
	}
	h.broadcast(h.summary(EventRefresh, res))
}

// ServeHTTP upgrades the connection, sends the current summary and then
// streams broadcasts until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.encode(h.summary(EventSnapshot, nil)); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) summary(event string, res *RefreshResult) Message {
	snap := h.store.Read()
	s := Summary{
		Generation: snap.Generation,
		Networks:   snap.Len(),
		Stats:      query.BuildStats(snap),
		Refresh:    res,
	}
	if !snap.LoadedAt.IsZero() {
		loaded := snap.LoadedAt.UTC()
		s.LoadedAt = &loaded
	}
	return Message{Event: event, Data: s}
}

func (h *Hub) encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(msg Message) {
	data, err := h.encode(msg)
	if err != nil {
		slog.Error("ws: encode message", "event", msg.Event, "err", err)
		return
	}

	// Sends happen under the read lock so unregister cannot close a channel
	// mid-send.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump forwards queued messages to the connection and sends pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. It blocks until
// the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
