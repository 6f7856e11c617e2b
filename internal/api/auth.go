package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/auth"
	"github.com/lalith-99/teamup/internal/repository"
	"github.com/lalith-99/teamup/internal/teamup"
)

// Registration tokens outlive the whole event window.
const userTokenTTL = 14 * 24 * time.Hour

// AuthHandler handles registration, the only public user endpoint.
// There is no password: re-registering with the same employee id
// reclaims the account with an updated name and role.
type AuthHandler struct {
	userRepo  repository.UserRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type registerRequest struct {
	Name         string `json:"name" binding:"required,max=64"`
	EmployeeID   string `json:"employee_id" binding:"required,max=64"`
	RoleCategory string `json:"role_category" binding:"required"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "name, employee_id and role_category are required"})
		return
	}

	if _, err := teamup.ParseRole(req.RoleCategory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "unknown role category"})
		return
	}

	user, err := h.userRepo.Upsert(c.Request.Context(), req.Name, req.EmployeeID, req.RoleCategory)
	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "registration failed"})
		return
	}

	token, err := auth.GenerateToken(user, h.jwtSecret, userTokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": user})
}
