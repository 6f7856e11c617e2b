package teamup

import (
	"errors"
	"fmt"
)

var (
	// ErrTeamNotFound means the target team id is not in the pool.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamLocked means the team no longer accepts joins or leaves.
	ErrTeamLocked = errors.New("team is locked")

	// ErrUserNotFound means the authenticated user has no user row,
	// which can only happen if the account was deleted after the token
	// was issued.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotTeamMember means a team mutation (rename) was attempted by
	// a user who is not on that team.
	ErrNotTeamMember = errors.New("only team members may do this")

	// ErrContention marks a transient transaction abort: a lock-wait
	// timeout, a deadlock victim, or a lost race on the one-membership
	// unique index. The coordinator retries these; callers who still
	// see it should simply try again.
	ErrContention = errors.New("transaction contention")
)

// AlreadyOnTeamError is returned when a user attempts to join a second
// team. TeamID is the team they are already on.
type AlreadyOnTeamError struct {
	TeamID string
}

func (e *AlreadyOnTeamError) Error() string {
	return fmt.Sprintf("already on team %s", e.TeamID)
}

// PolicyError is a composition-policy rejection. Reason is safe to show
// to the user.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }
