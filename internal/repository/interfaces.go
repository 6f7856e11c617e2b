package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/lalith-99/teamup/internal/models"
)

// Every method takes a context: all of these hit the database, and a
// cancelled request should cancel its queries.

// UserRepository handles registration and lookup of attendees.
type UserRepository interface {
	// Upsert registers a user keyed by employee id. Re-registration
	// with a known employee id updates the name and role in place and
	// returns the existing account.
	Upsert(ctx context.Context, name, employeeID, roleCategory string) (*models.User, error)

	// GetByID returns a user, or nil, nil if not found.
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// TeamRepository handles the pre-seeded team pool. Counters on the team
// rows are owned by the join/leave coordinator and never mutated here.
type TeamRepository interface {
	// Seed ensures every id in the pool exists. Race-tolerant: ids
	// already present are skipped, concurrent calls are safe.
	Seed(ctx context.Context, ids []string) error

	// List returns all teams ordered by id for stable display.
	List(ctx context.Context) ([]models.Team, error)

	// Rename sets a team's display name on behalf of one of its
	// members. Fails with teamup.ErrTeamNotFound or
	// teamup.ErrNotTeamMember.
	Rename(ctx context.Context, teamID string, userID uuid.UUID, name string) error
}

// MembershipRepository is the read side of the membership ledger. All
// writes go through the coordinator's transactional store.
type MembershipRepository interface {
	// TeamIDForUser returns the user's current team id, or "" if the
	// user is unassigned.
	TeamIDForUser(ctx context.Context, userID uuid.UUID) (string, error)

	// ListMembers returns every membership joined with its user, for
	// the lobby view.
	ListMembers(ctx context.Context) ([]models.TeamMember, error)
}

// RegistrationRepository handles gathering attendance and contest
// signups.
type RegistrationRepository interface {
	// SetMeetingAttendance upserts the user's opt-in/out.
	SetMeetingAttendance(ctx context.Context, userID uuid.UUID, attending bool) error

	// SignupContest registers the user for the side contest. Idempotent.
	SignupContest(ctx context.Context, userID uuid.UUID) error

	// BackfillMeeting inserts an attending registration for every user
	// who has none, so admin reports cover users who never touched the
	// opt-in form.
	BackfillMeeting(ctx context.Context) error

	// ListMeeting returns registrations with the given attendance,
	// oldest first.
	ListMeeting(ctx context.Context, attending bool) ([]models.MeetingRegistration, error)

	// ListContest returns all contest signups, oldest first.
	ListContest(ctx context.Context) ([]models.ContestSignup, error)
}
