package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"qrdine-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection. Waiters authenticate with a
// token query parameter; connections without one join as guests and only
// get the menu category tracking.
func HandleWebSocket(hub *Hub, jwtSecret string, scrollThreshold float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.WaiterClaims{Role: RoleGuest}

		if tokenString := r.URL.Query().Get("token"); tokenString != "" {
			parsed, err := middleware.ParseToken(jwtSecret, tokenString)
			if err != nil {
				hub.logger.Debug("❌ Invalid token in query parameter", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims = parsed
		} else if fromCtx, ok := middleware.GetWaiterFromContext(r); ok {
			claims = fromCtx
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn("❌ WebSocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(claims.WaiterID, claims.Role, conn, hub, scrollThreshold)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
