package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lalith-99/teamup/internal/middleware"
	"github.com/lalith-99/teamup/internal/models"
	"github.com/lalith-99/teamup/internal/repository"
)

// LobbyHandler is the read side: it composes team counters, the
// caller's own membership, and the per-team member lists into one
// snapshot. Strictly a projection; the composition policy is enforced
// in the join transaction, never here.
type LobbyHandler struct {
	teamRepo       repository.TeamRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	logger         *zap.Logger
}

func NewLobbyHandler(
	teamRepo repository.TeamRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *LobbyHandler {
	return &LobbyHandler{
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// Get handles GET /v1/lobby
func (h *LobbyHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	// Collators carry mutable iterator state and are not safe for
	// concurrent use, so each request builds its own.
	memberCollator := collate.New(language.MustParse("zh-Hans"))

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "failed to load lobby"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "account no longer exists"})
		return
	}

	teams, err := h.teamRepo.List(ctx)
	if err != nil {
		h.logger.Error("failed to list teams", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "failed to load lobby"})
		return
	}

	myTeamID, err := h.membershipRepo.TeamIDForUser(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get own membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "failed to load lobby"})
		return
	}

	members, err := h.membershipRepo.ListMembers(ctx)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "failed to load lobby"})
		return
	}

	membersByTeam := make(map[string][]models.TeamMember)
	for _, m := range members {
		membersByTeam[m.TeamID] = append(membersByTeam[m.TeamID], m)
	}
	// stable, locale-aware ordering for display
	for _, list := range membersByTeam {
		sort.Slice(list, func(i, j int) bool {
			if c := memberCollator.CompareString(list[i].Name, list[j].Name); c != 0 {
				return c < 0
			}
			return list[i].UserID.String() < list[j].UserID.String()
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"user":            user,
		"my_team_id":      myTeamID,
		"teams":           teams,
		"members_by_team": membersByTeam,
	})
}
