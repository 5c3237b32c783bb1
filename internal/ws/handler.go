package ws

import (
	"net/http"
	"time"

	"chatster/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// ServeWs upgrades the connection and runs the authentication handshake.
// The credential comes from the token query parameter or the auth_token
// cookie. A failed handshake gets an auth_error event and a forced close;
// a successful one registers the connection and starts the pumps.
func ServeWs(hub *Hub, jwtService *jwt.Service, c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if cookie, err := c.Cookie("auth_token"); err == nil {
			token = cookie
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.LogError(err, "Failed to upgrade connection")
		return
	}

	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		hub.logger.Warn("Realtime handshake rejected", "error", err.Error())
		if data, merr := marshalEvent(EventAuthError, AuthErrorPayload{Message: "authentication failed"}); merr == nil {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.TextMessage, data)
		}
		conn.Close()
		return
	}

	client := newClient(hub, conn, uuid.New().String(), claims.UserID)
	hub.register(client)

	go client.WritePump()
	go client.ReadPump()
}
