package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered attendee. EmployeeID is the external identifier
// people register with; re-registering with the same employee id updates
// the name and role instead of creating a second account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	EmployeeID   string    `json:"employee_id"`
	RoleCategory string    `json:"role_category"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeamStatus is the lifecycle state of a team. Locked teams accept no
// joins and no leaves.
type TeamStatus string

const (
	TeamForming TeamStatus = "forming"
	TeamLocked  TeamStatus = "locked"
)

// Team is one slot in the pre-seeded pool (T01..T30). The five counters
// are a denormalized aggregate of team_members rows; they are mutated
// only inside the join/leave transaction and must always equal the true
// per-role counts.
type Team struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Status       TeamStatus `json:"status"`
	MemberCount  int        `json:"member_count"`
	RNDCount     int        `json:"rnd_count"`
	ProductCount int        `json:"product_count"`
	GrowthCount  int        `json:"growth_count"`
	RootCount    int        `json:"root_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Membership is one user's seat on a team. RoleCategory is snapshotted at
// join time so a later re-registration with a different role cannot
// desync the team counters when the user leaves.
type Membership struct {
	TeamID       string    `json:"team_id"`
	UserID       uuid.UUID `json:"user_id"`
	RoleCategory string    `json:"role_category"`
	JoinedAt     time.Time `json:"joined_at"`
}

// TeamMember is the lobby view of a membership row joined with the user.
type TeamMember struct {
	TeamID       string    `json:"team_id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	RoleCategory string    `json:"role_category"`
}

// MeetingRegistration records a user's opt-in/out for the gathering,
// joined with the user row for reporting.
type MeetingRegistration struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	EmployeeID   string    `json:"employee_id"`
	RoleCategory string    `json:"role_category"`
	Attending    bool      `json:"attending"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContestSignup records a user's side-contest registration.
type ContestSignup struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	EmployeeID   string    `json:"employee_id"`
	RoleCategory string    `json:"role_category"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
