package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"qrdine-backend/internal/services/menu"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// RoleGuest is used for unauthenticated menu screens.
const RoleGuest = "guest"

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	WaiterID string
	Role     string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte // closed by the hub
	replies  chan []byte // answers to this client's own messages, never closed
	tracker  *menu.Tracker
	logger   *zap.Logger
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type menuCategoriesData struct {
	Categories []string `json:"categories"`
}

type menuScrollData struct {
	Offsets map[string]float64 `json:"offsets"`
}

type menuSelectData struct {
	Category string `json:"category"`
}

func NewClient(waiterID, role string, conn *websocket.Conn, hub *Hub, scrollThreshold float64) *Client {
	return &Client{
		ID:       uuid.New().String(),
		WaiterID: waiterID,
		Role:     role,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		replies:  make(chan []byte, 16),
		tracker:  menu.NewTracker(scrollThreshold),
		logger:   hub.logger,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket error", zap.Error(err))
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Debug("Invalid message format", zap.Error(err))
			continue
		}

		if reply := c.handle(msg); reply != nil {
			data, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			select {
			case c.replies <- data:
			default:
			}
		}
	}
}

// handle answers a single client message. nil means no reply.
func (c *Client) handle(msg IncomingMessage) map[string]interface{} {
	switch msg.Type {
	case "ping":
		return map[string]interface{}{
			"type":      "pong",
			"timestamp": time.Now().Format(time.RFC3339),
		}

	case "menu_categories":
		var d menuCategoriesData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil
		}
		c.tracker.SetCategories(d.Categories)
		return activeCategory(c.tracker.Active())

	case "menu_scroll":
		var d menuScrollData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil
		}
		return activeCategory(c.tracker.OnScroll(d.Offsets))

	case "menu_select":
		var d menuSelectData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return nil
		}
		if !c.tracker.Select(d.Category) {
			return nil
		}
		return activeCategory(c.tracker.Active())
	}
	return nil
}

func activeCategory(category string) map[string]interface{} {
	return map[string]interface{}{
		"type":     "active_category",
		"category": category,
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case reply := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
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
