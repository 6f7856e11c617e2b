package teamup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/models"
)

// Tx is the set of operations the coordinator performs inside one atomic
// unit. The *ForUpdate reads must take exclusive row locks for the rest
// of the transaction; implementations that cannot lock per row must
// serialize per key some other way.
type Tx interface {
	// MembershipForUpdate returns the user's membership row locked, or
	// nil, nil if the user is unassigned.
	MembershipForUpdate(ctx context.Context, userID uuid.UUID) (*models.Membership, error)

	// TeamForUpdate returns the team row locked, or nil, nil if the id
	// is not in the pool.
	TeamForUpdate(ctx context.Context, teamID string) (*models.Team, error)

	// UserByID returns the user row, or nil, nil if it no longer exists.
	UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	InsertMembership(ctx context.Context, teamID string, userID uuid.UUID, role Role) error
	DeleteMembership(ctx context.Context, userID uuid.UUID) error
	SetTeamCounts(ctx context.Context, teamID string, c Counts) error
}

// Store runs fn inside a transaction: commit on nil, full rollback on
// error. Transient aborts (lock waits, deadlocks, unique-index races)
// must surface as errors matching ErrContention.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Coordinator is the join/leave state machine. Per user the states are
// unassigned -> member(team) -> unassigned; every transition validates
// against the locked counters before writing, so two racing joins can
// never both take the last seat.
type Coordinator struct {
	store  Store
	logger *zap.Logger

	// retries for transactions aborted with ErrContention
	maxAttempts int
	backoff     time.Duration
}

func NewCoordinator(store Store, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		logger:      logger,
		maxAttempts: 3,
		backoff:     25 * time.Millisecond,
	}
}

// Join puts the user on the team and returns the team id. Re-joining the
// current team succeeds as a no-op. Failure modes: ErrTeamNotFound,
// ErrTeamLocked, *AlreadyOnTeamError, *PolicyError, and ErrContention
// once retries are exhausted.
func (c *Coordinator) Join(ctx context.Context, userID uuid.UUID, teamID string) (string, error) {
	err := c.withRetry(ctx, func() error {
		return c.store.InTx(ctx, func(tx Tx) error {
			existing, err := tx.MembershipForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.TeamID == teamID {
					return nil
				}
				return &AlreadyOnTeamError{TeamID: existing.TeamID}
			}

			team, err := tx.TeamForUpdate(ctx, teamID)
			if err != nil {
				return err
			}
			if team == nil {
				return ErrTeamNotFound
			}
			if team.Status == models.TeamLocked {
				return ErrTeamLocked
			}

			// Role is read inside the transaction; a stale token claim
			// can never put the wrong delta on the counters.
			user, err := tx.UserByID(ctx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrUserNotFound
			}
			role, err := ParseRole(user.RoleCategory)
			if err != nil {
				return err
			}

			next, err := CanJoin(teamCounts(team), role)
			if err != nil {
				return err
			}

			if err := tx.InsertMembership(ctx, teamID, userID, role); err != nil {
				return err
			}
			return tx.SetTeamCounts(ctx, teamID, next)
		})
	})
	if err != nil {
		return "", err
	}
	return teamID, nil
}

// Leave removes the user from their team. It is a no-op for unassigned
// users, refuses members of locked teams, and self-heals a membership
// whose team row has disappeared.
func (c *Coordinator) Leave(ctx context.Context, userID uuid.UUID) error {
	return c.withRetry(ctx, func() error {
		return c.store.InTx(ctx, func(tx Tx) error {
			m, err := tx.MembershipForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if m == nil {
				return nil
			}

			team, err := tx.TeamForUpdate(ctx, m.TeamID)
			if err != nil {
				return err
			}
			if team == nil {
				// orphaned row: drop it and move on
				c.logger.Warn("membership without team, cleaning up",
					zap.String("team_id", m.TeamID),
					zap.String("user_id", userID.String()),
				)
				return tx.DeleteMembership(ctx, userID)
			}
			if team.Status == models.TeamLocked {
				return ErrTeamLocked
			}

			role, err := ParseRole(m.RoleCategory)
			if err != nil {
				return err
			}
			if err := tx.DeleteMembership(ctx, userID); err != nil {
				return err
			}
			return tx.SetTeamCounts(ctx, team.ID, teamCounts(team).Sub(RoleDelta(role)))
		})
	})
}

func (c *Coordinator) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrContention) {
			return err
		}
		if attempt == c.maxAttempts {
			break
		}
		c.logger.Debug("retrying contended transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	return err
}

func teamCounts(t *models.Team) Counts {
	return Counts{
		Total:   t.MemberCount,
		RND:     t.RNDCount,
		Product: t.ProductCount,
		Growth:  t.GrowthCount,
		Root:    t.RootCount,
	}
}

// ApplyCounts writes c back onto the team model. Used by storage
// implementations and tests to keep the mapping in one place.
func ApplyCounts(t *models.Team, c Counts) {
	t.MemberCount = c.Total
	t.RNDCount = c.RND
	t.ProductCount = c.Product
	t.GrowthCount = c.Growth
	t.RootCount = c.Root
}
