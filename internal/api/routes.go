package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/teamup/internal/middleware"
)

// Handlers carries everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Team         *TeamHandler
	Lobby        *LobbyHandler
	Registration *RegistrationHandler
	Admin        *AdminHandler

	// Presence is the websocket handshake handler; it authenticates
	// itself from the token query parameter.
	Presence gin.HandlerFunc
}

// SetupRoutes builds the gin engine. Health, registration, admin login
// and the websocket handshake are public; everything else sits behind
// a bearer token.
func SetupRoutes(h Handlers, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/register", h.Auth.Register)
	r.POST("/v1/admin/login", h.Admin.Login)
	r.GET("/v1/ws/presence", h.Presence)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(jwtSecret))
	{
		v1.GET("/lobby", h.Lobby.Get)
		v1.POST("/teams/leave", h.Team.Leave)
		v1.POST("/teams/:id/join", h.Team.Join)
		v1.POST("/teams/:id/name", h.Team.Rename)
		v1.POST("/meeting", h.Registration.Meeting)
		v1.POST("/contest", h.Registration.Contest)
	}

	admin := r.Group("/v1/admin")
	admin.Use(middleware.AdminMiddleware(jwtSecret))
	{
		admin.GET("/meeting", h.Admin.Meeting)
		admin.GET("/meeting/declined", h.Admin.MeetingDeclined)
		admin.GET("/contest", h.Admin.Contest)
	}

	return r
}
