// Package teamup implements the team-formation engine: the composition
// policy that decides whether a user may take a seat on a team, and the
// transactional coordinator that applies join/leave mutations against
// the durable counters.
package teamup

import "fmt"

// Role is a user's role category, fixed per registration cycle.
type Role string

const (
	RoleRND      Role = "RND"
	RoleProduct  Role = "PRODUCT"
	RoleGrowth   Role = "GROWTH"
	RoleRoot     Role = "ROOT"
	RoleFunction Role = "FUNCTION"
)

// ParseRole validates a role string coming in from a request or a
// database row.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleRND, RoleProduct, RoleGrowth, RoleRoot, RoleFunction:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role category %q", s)
	}
}

// Counts mirrors a team's denormalized counters.
type Counts struct {
	Total   int
	RND     int
	Product int
	Growth  int
	Root    int
}

// Delta is the counter change contributed by one member of a given role.
type Delta struct {
	Total   int
	RND     int
	Product int
	Growth  int
	Root    int
}

// RoleDelta returns the counter delta for one member of role r. Exactly
// one quota counter moves per member; FUNCTION members count toward the
// total only.
func RoleDelta(r Role) Delta {
	d := Delta{Total: 1}
	switch r {
	case RoleRND:
		d.RND = 1
	case RoleProduct:
		d.Product = 1
	case RoleGrowth:
		d.Growth = 1
	case RoleRoot:
		d.Root = 1
	}
	return d
}

// Add returns the counts after a member with delta d joins.
func (c Counts) Add(d Delta) Counts {
	return Counts{
		Total:   c.Total + d.Total,
		RND:     c.RND + d.RND,
		Product: c.Product + d.Product,
		Growth:  c.Growth + d.Growth,
		Root:    c.Root + d.Root,
	}
}

// Sub returns the counts after a member with delta d leaves. Each counter
// is floored at zero to tolerate historical drift.
func (c Counts) Sub(d Delta) Counts {
	return Counts{
		Total:   max(0, c.Total-d.Total),
		RND:     max(0, c.RND-d.RND),
		Product: max(0, c.Product-d.Product),
		Growth:  max(0, c.Growth-d.Growth),
		Root:    max(0, c.Root-d.Root),
	}
}
