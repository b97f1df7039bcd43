package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventNotificationCreated EventType = "notification.created"
)

// NotificationEvent is the payload broadcast to connected admin dashboards.
type NotificationEvent struct {
	Event          EventType `json:"event"`
	NotificationID int       `json:"notificationId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	Priority       string    `json:"priority"`
	RelatedAdminID int       `json:"relatedAdminId"`
	Timestamp      time.Time `json:"timestamp"`
}

// Client represents one connected admin dashboard stream.
type Client struct {
	AdminID int
	Key     string
	Events  chan []byte
}

// Hub manages SSE client connections and routes notification events to the
// admin they belong to.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming.
func (h *Hub) Register(key string, adminID int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		AdminID: adminID,
		Key:     key,
		Events:  make(chan []byte, 64),
	}
	h.clients[key] = c
	log.Info().Str("client", key).Int("admin_id", adminID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[key]; ok {
		close(c.Events)
		delete(h.clients, key)
		log.Info().Str("client", key).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast delivers an event to every stream owned by the target admin.
// Non-blocking: drops the message if a client buffer is full.
func (h *Hub) Broadcast(event *NotificationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.AdminID != event.RelatedAdminID {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client", c.Key).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
