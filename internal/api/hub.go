package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/main-street/internal/engine"
)

// Stream message types.
const (
	MessageStatus = "status"
	MessageEvent  = "event"
	MessageSpawn  = "spawn"
)

const (
	maxStreamClients = 32
	clientBuffer     = 128
	writeWait        = 10 * time.Second
)

// Envelope is one message on the notification stream.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans notifications out to WebSocket clients. Publish never blocks;
// a client that cannot keep up is dropped.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	count   atomic.Int32
	dropped atomic.Int64
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    map[*client]bool{},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.count.Store(0)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int32(len(h.clients)))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.count.Store(int32(len(h.clients)))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slog.Warn("stream client too slow, dropping")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.count.Store(int32(len(h.clients)))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Publish queues a message for every client.
func (h *Hub) Publish(kind string, payload any) {
	msg, err := encodeEnvelope(kind, payload)
	if err != nil {
		slog.Error("encode stream message", "type", kind, "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
	}
}

// PublishEvent forwards a game notification. It fits engine.Options.OnEvent.
func (h *Hub) PublishEvent(e engine.Event) { h.Publish(MessageEvent, e) }

// Spawn forwards a spawn request, making the hub an engine.CitizenSink.
func (h *Hub) Spawn(r engine.SpawnRequest) { h.Publish(MessageSpawn, r) }

func encodeEnvelope(kind string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Payload: data})
}

// join registers a connection and starts its pumps. hello is delivered
// before any broadcast.
func (h *Hub) join(conn *websocket.Conn, hello []byte) bool {
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	c.send <- hello
	select {
	case h.register <- c:
	case <-h.done:
		return false
	}
	go c.writer()
	go c.reader(h)
	return true
}

func (c *client) reader(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		// Clients only listen; anything they send is discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// SpawnRelay sends spawn requests to stream clients and also queues them
// for clients that poll /api/v1/spawns.
type SpawnRelay struct {
	Hub   *Hub
	Queue *engine.SpawnQueue
}

func (r SpawnRelay) Spawn(req engine.SpawnRequest) {
	if r.Hub != nil {
		r.Hub.Spawn(req)
	}
	if r.Queue != nil {
		r.Queue.Spawn(req)
	}
}
