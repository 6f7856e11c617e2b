package presence

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token in the handshake is the access control; presence data
	// is the same for every authenticated viewer, so cross-origin
	// browser tabs are acceptable.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades GET /v1/ws/presence. Browsers cannot set headers on
// websocket handshakes, so the credential rides in the token query
// parameter and is validated once, before the upgrade; an invalid token
// never reaches the hub.
func Handler(hub *Hub, jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "missing token"})
			return
		}

		claims, err := auth.ParseToken(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error
			logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, User{
			UserID:     claims.UserID,
			Name:       claims.Name,
			EmployeeID: claims.EmployeeID,
			Role:       claims.Role,
		}, logger)
		client.Run()
	}
}
