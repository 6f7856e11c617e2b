package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lalith-99/teamup/internal/auth"
	"github.com/lalith-99/teamup/internal/repository"
)

const adminTokenTTL = 8 * time.Hour

// AdminHandler covers the organizer's login and the registration
// reports.
type AdminHandler struct {
	regRepo      repository.RegistrationRepository
	adminUser    string
	passwordHash string
	jwtSecret    string
	logger       *zap.Logger
}

func NewAdminHandler(
	regRepo repository.RegistrationRepository,
	adminUser, passwordHash, jwtSecret string,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		regRepo:      regRepo,
		adminUser:    adminUser,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/login. One generic failure message for
// every wrong input; it never reveals which part was wrong.
func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "username and password are required"})
		return
	}

	if h.passwordHash == "" {
		// admin access is disabled unless a hash is configured
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "invalid username or password"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.adminUser)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "invalid username or password"})
		return
	}

	token, err := auth.GenerateAdminToken(h.jwtSecret, adminTokenTTL)
	if err != nil {
		h.logger.Error("failed to generate admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token})
}

// Meeting handles GET /v1/admin/meeting, listing everyone attending. Users
// who never touched the opt-in form are backfilled as attending first,
// matching how the event treats silence.
func (h *AdminHandler) Meeting(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.regRepo.BackfillMeeting(ctx); err != nil {
		h.logger.Error("failed to backfill meeting registrations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "report failed"})
		return
	}

	rows, err := h.regRepo.ListMeeting(ctx, true)
	if err != nil {
		h.logger.Error("failed to list meeting registrations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "report failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// MeetingDeclined handles GET /v1/admin/meeting/declined.
func (h *AdminHandler) MeetingDeclined(c *gin.Context) {
	rows, err := h.regRepo.ListMeeting(c.Request.Context(), false)
	if err != nil {
		h.logger.Error("failed to list declined registrations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "report failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// Contest handles GET /v1/admin/contest.
func (h *AdminHandler) Contest(c *gin.Context) {
	rows, err := h.regRepo.ListContest(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list contest signups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "report failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}
