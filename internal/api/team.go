package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/middleware"
	"github.com/lalith-99/teamup/internal/repository"
	"github.com/lalith-99/teamup/internal/teamup"
)

// Coordinator is the slice of the join/leave engine the handler needs.
type Coordinator interface {
	Join(ctx context.Context, userID uuid.UUID, teamID string) (string, error)
	Leave(ctx context.Context, userID uuid.UUID) error
}

// TeamHandler exposes the team mutations: join, leave, rename.
type TeamHandler struct {
	coordinator Coordinator
	teamRepo    repository.TeamRepository
	logger      *zap.Logger
}

func NewTeamHandler(coordinator Coordinator, teamRepo repository.TeamRepository, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		coordinator: coordinator,
		teamRepo:    teamRepo,
		logger:      logger,
	}
}

// Join handles POST /v1/teams/:id/join. Joining the team you are
// already on succeeds again; every other outcome is a definitive,
// specific refusal.
func (h *TeamHandler) Join(c *gin.Context) {
	userID := middleware.GetUserID(c)
	teamID := c.Param("id")

	joined, err := h.coordinator.Join(c.Request.Context(), userID, teamID)
	if err != nil {
		h.refuse(c, err, "join")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "team_id": joined})
}

// Leave handles POST /v1/teams/leave. Idempotent for users without a
// team.
func (h *TeamHandler) Leave(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.coordinator.Leave(c.Request.Context(), userID); err != nil {
		h.refuse(c, err, "leave")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type renameRequest struct {
	Name string `json:"name" binding:"required,max=32"`
}

// Rename handles POST /v1/teams/:id/name. Only members may rename
// their team.
func (h *TeamHandler) Rename(c *gin.Context) {
	userID := middleware.GetUserID(c)
	teamID := c.Param("id")

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "name is required (max 32 characters)"})
		return
	}

	err := h.teamRepo.Rename(c.Request.Context(), teamID, userID, req.Name)
	switch {
	case errors.Is(err, teamup.ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "team not found"})
	case errors.Is(err, teamup.ErrNotTeamMember):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "message": "only team members may rename the team"})
	case err != nil:
		h.logger.Error("failed to rename team", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "rename failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": req.Name})
	}
}

// refuse maps coordinator errors onto responses. Validation refusals
// carry the reason; only contention suggests retrying.
func (h *TeamHandler) refuse(c *gin.Context, err error, op string) {
	var (
		aot *teamup.AlreadyOnTeamError
		pe  *teamup.PolicyError
	)
	switch {
	case errors.Is(err, teamup.ErrTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "team not found"})
	case errors.Is(err, teamup.ErrTeamLocked):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "message": "team is locked"})
	case errors.As(err, &aot):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "message": "you are already on team " + aot.TeamID})
	case errors.As(err, &pe):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "message": pe.Reason})
	case errors.Is(err, teamup.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "account no longer exists"})
	case errors.Is(err, teamup.ErrContention):
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "message": "busy, please try again"})
	default:
		h.logger.Error("team mutation failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": op + " failed"})
	}
}
