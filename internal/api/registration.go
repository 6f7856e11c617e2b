package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/middleware"
	"github.com/lalith-99/teamup/internal/repository"
)

// RegistrationHandler covers the two side signups: gathering
// attendance and the contest.
type RegistrationHandler struct {
	regRepo repository.RegistrationRepository
	logger  *zap.Logger
}

func NewRegistrationHandler(regRepo repository.RegistrationRepository, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{regRepo: regRepo, logger: logger}
}

type meetingRequest struct {
	// pointer so "attending": false binds instead of failing required
	Attending *bool `json:"attending" binding:"required"`
}

// Meeting handles POST /v1/meeting. Upserts the caller's opt-in/out.
func (h *RegistrationHandler) Meeting(c *gin.Context) {
	var req meetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "attending is required"})
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.regRepo.SetMeetingAttendance(c.Request.Context(), userID, *req.Attending); err != nil {
		h.logger.Error("failed to set meeting attendance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Contest handles POST /v1/contest. Idempotent signup.
func (h *RegistrationHandler) Contest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.regRepo.SignupContest(c.Request.Context(), userID); err != nil {
		h.logger.Error("failed to sign up for contest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "signup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
