package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedMessage is the frame pushed to feed subscribers
type FeedMessage struct {
	Type string                       `json:"type"`
	Test *models.GeneratedTestSummary `json:"test,omitempty"`
}

// Feed fans generated-test summaries out to websocket subscribers.
// It satisfies generator.Publisher.
type Feed struct {
	mu      sync.RWMutex
	clients map[string]*feedClient
}

type feedClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{
		clients: make(map[string]*feedClient),
	}
}

// Publish queues the summary for every subscriber.
// Slow subscribers whose buffer is full miss the message.
func (f *Feed) Publish(summary models.GeneratedTestSummary) {
	data, err := json.Marshal(FeedMessage{Type: "generated", Test: &summary})
	if err != nil {
		slog.Error("failed to marshal feed message", "error", err)
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, c := range f.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("feed subscriber buffer full, dropping message", "client_id", c.id, "test_id", summary.ID)
		}
	}
}

// Subscribers returns the number of connected clients
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close disconnects every subscriber
func (f *Feed) Close() {
	f.mu.Lock()
	clients := f.clients
	f.clients = make(map[string]*feedClient)
	f.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// ServeHTTP upgrades the request and streams summaries until the client leaves
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	c := &feedClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	hello, _ := json.Marshal(FeedMessage{Type: "connected"})
	c.send <- hello

	f.mu.Lock()
	f.clients[c.id] = c
	f.mu.Unlock()

	slog.Info("feed subscriber connected", "client_id", c.id, "remote_addr", r.RemoteAddr)

	go c.writePump()
	c.readPump()

	f.mu.Lock()
	delete(f.clients, c.id)
	f.mu.Unlock()
	c.close()

	slog.Info("feed subscriber disconnected", "client_id", c.id)
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump discards inbound frames and returns when the connection drops
func (c *feedClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("feed read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("failed to send feed message", "client_id", c.id, "error", err)
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
