// Package notifications pushes marketplace changes to connected browsers
// over websockets so they can refetch, and tells them when the session has
// been terminated.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"

	"skillswap/internal/observability"
	"skillswap/internal/store"
)

const maxTotalConns = 1000

// ErrConnectionLimit is returned by Register when the hub is full.
var ErrConnectionLimit = errors.New("server connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("event hub is shut down")

// Hub fans events out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  observability.Component("notifications"),
	}
}

// Register adds a connection. conn may be nil in tests.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrConnectionLimit
	}
	c := &Client{hub: h, Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
	h.clients[c] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return c, nil
}

// UnregisterClient removes c and closes its send channel. It is safe to call
// more than once.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll queues data for every client.
func (h *Hub) BroadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(data)
	}
}

// Publish encodes e and broadcasts it.
func (h *Hub) Publish(e Event) {
	data, err := e.Encode()
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("type", string(e.Type)), slog.String("error", err.Error()))
		return
	}
	h.BroadcastAll(data)
}

// Follow forwards every accepted store transition to the hub and returns a
// function that stops forwarding.
func (h *Hub) Follow(s *store.Store) func() {
	return s.Subscribe(func(change store.Change) {
		for _, e := range EventsFor(change) {
			h.Publish(e)
		}
	})
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true

	for c := range h.clients {
		if c.Conn != nil {
			if err := c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				h.logger.Debug("failed to write close message", slog.String("error", err.Error()))
			}
			_ = c.Conn.Close()
		}
		delete(h.clients, c)
		close(c.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}
