package sse

import (
	"context"
	"sync"
	"time"

	"github.com/settle-hub/settle-hub/internal/domain/event"
	"github.com/settle-hub/settle-hub/internal/infrastructure/metrics"
)

// Client is one connected stream subscriber, bound to a single room.
type Client struct {
	ID          string
	RoomID      string
	ConnectedAt time.Time
	Ch          chan *event.Envelope
}

// NewClient creates a stream client with a buffered channel. A full buffer
// drops events rather than blocking the publisher; delivery is best-effort.
func NewClient(id, roomID string, buffer int) *Client {
	return &Client{
		ID:          id,
		RoomID:      roomID,
		ConnectedAt: time.Now().UTC(),
		Ch:          make(chan *event.Envelope, buffer),
	}
}

// Hub fans events out to every client subscribed to a room. It implements
// event.Channel for in-process delivery.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		metrics.SSEClients.Inc()
	}
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		close(c.Ch)
		delete(h.clients, clientID)
		metrics.SSEClients.Dec()
	}
}

func (h *Hub) CountByRoom(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.RoomID == roomID {
			n++
		}
	}
	return n
}

// Publish implements event.Channel.
func (h *Hub) Publish(_ context.Context, roomID, name string, payload any) error {
	env, err := event.NewEnvelope(roomID, name, payload)
	if err != nil {
		return err
	}
	h.Broadcast(env)
	return nil
}

// Broadcast sends an already-built envelope to the room's clients.
func (h *Hub) Broadcast(env *event.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.RoomID == env.RoomID {
			trySend(c, env)
		}
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Ch)
		delete(h.clients, id)
		metrics.SSEClients.Dec()
	}
}

func trySend(c *Client, env *event.Envelope) bool {
	select {
	case c.Ch <- env:
		return true
	default:
		return false
	}
}
