package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (client ID -> Client). A waiter may be connected
	// from several devices at once.
	clients map[string]*Client

	// Messages addressed to a single waiter
	broadcast chan *Message

	register   chan *Client
	unregister chan *Client

	// closed when Run returns
	done chan struct{}

	logger *zap.Logger

	mu sync.RWMutex
}

// Message represents a message to broadcast to a specific waiter
type Message struct {
	WaiterID string
	Data     interface{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, after
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("✅ [WEBSOCKET] Client connected",
				zap.String("waiter_id", client.WaiterID),
				zap.String("role", client.Role),
				zap.Int("clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				h.logger.Info("🔴 [WEBSOCKET] Client disconnected",
					zap.String("waiter_id", client.WaiterID),
					zap.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				h.logger.Error("❌ Failed to marshal message", zap.Error(err))
				continue
			}
			h.mu.Lock()
			for id, client := range h.clients {
				if client.WaiterID != message.WaiterID {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, id)
					h.logger.Warn("⚠️ Client buffer full, disconnecting", zap.String("waiter_id", client.WaiterID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client if the hub is still running.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToWaiter sends a message to every connection of one waiter
func (h *Hub) BroadcastToWaiter(waiterID string, data interface{}) {
	select {
	case h.broadcast <- &Message{WaiterID: waiterID, Data: data}:
	default:
		h.logger.Warn("⚠️ Hub broadcast queue full, dropping message", zap.String("waiter_id", waiterID))
	}
}

// BroadcastToRole sends a message to all connections with a specific role.
// It returns how many connections the message was queued for.
func (h *Hub) BroadcastToRole(role string, data interface{}) int {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("❌ Failed to marshal broadcast message", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.Role != role {
			continue
		}
		select {
		case client.send <- dataBytes:
			sent++
		default:
		}
	}
	return sent
}

// CountRole returns the number of connections with role
func (h *Hub) CountRole(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.Role == role {
			n++
		}
	}
	return n
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsWaiterConnected checks if a waiter has at least one open connection
func (h *Hub) IsWaiterConnected(waiterID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.WaiterID == waiterID {
			return true
		}
	}
	return false
}
