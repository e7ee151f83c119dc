package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Message types pushed to clients
const (
	TypeLeaderboard = "leaderboard"
	TypeMatch       = "match"
)

// Message is the envelope written to every websocket client
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

const writeWait = 10 * time.Second

// Hub fans snapshots out to connected websocket clients
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// New creates a hub accepting connections from the given origins ("*" allows all)
func New(allowedOrigins []string) *Hub {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		clients: make(map[*client]bool),
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast writes msg to every client, dropping those whose write fails
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	var failed []*client
	for c := range h.clients {
		if err := c.send(data); err != nil {
			log.Debugf("Failed to send %s message: %v", msg.Type, err)
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Handler upgrades the request and keeps the client registered until it disconnects.
// greeting, when set, supplies the first message sent to the new client.
func (h *Hub) Handler(greeting func() Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("Failed to upgrade connection: %v", err)
			return
		}

		c := &client{conn: conn}
		if greeting != nil {
			data, err := json.Marshal(greeting())
			if err == nil {
				err = c.send(data)
			}
			if err != nil {
				log.Debugf("Failed to greet client: %v", err)
				conn.Close()
				return
			}
		}

		h.mu.Lock()
		h.clients[c] = true
		h.mu.Unlock()

		// Clients only listen; reading detects disconnection
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// Run broadcasts the message produced by snapshot every interval until ctx is done
func (h *Hub) Run(ctx context.Context, interval time.Duration, snapshot func() Message) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.Count() > 0 {
				h.Broadcast(snapshot())
			}
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
