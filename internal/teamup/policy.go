package teamup

import "fmt"

// Composition rules for a full team of five: at least two RND, one
// PRODUCT, one GROWTH, and never more than one ROOT.
const (
	TeamCapacity = 5
	MinRND       = 2
	MinProduct   = 1
	MinGrowth    = 1
	MaxRoot      = 1
)

// DefaultTeamIDs is the pre-seeded pool, T01..T30.
var DefaultTeamIDs = func() []string {
	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("T%02d", i+1)
	}
	return ids
}()

// CanJoin applies the composition policy to a hypothetical join: it
// returns the post-join counts if a member of role r may take a seat on
// a team currently at cur, or a *PolicyError describing the violated
// rule. It is a pure function over the counters; locking and persistence
// are the coordinator's problem.
//
// The ROOT ceiling is hard and immediate. The minimums are evaluated as
// a feasibility check: a join is rejected as soon as the remaining free
// seats can no longer cover the outstanding shortfalls (one seat can
// satisfy only one shortfall), and a join that fills the fifth seat must
// leave no shortfall at all.
func CanJoin(cur Counts, r Role) (Counts, error) {
	next := cur.Add(RoleDelta(r))

	if next.Total > TeamCapacity {
		return Counts{}, &PolicyError{Reason: "team is full"}
	}
	if next.Root > MaxRoot {
		return Counts{}, &PolicyError{Reason: "ROOT members must spread out (at most 1 per team)"}
	}

	slots := TeamCapacity - next.Total
	need := max(0, MinRND-next.RND) +
		max(0, MinProduct-next.Product) +
		max(0, MinGrowth-next.Growth)

	if next.Total == TeamCapacity && need != 0 {
		return Counts{}, &PolicyError{Reason: "a full team must satisfy its composition requirements"}
	}
	if need > slots {
		return Counts{}, &PolicyError{Reason: "team can no longer satisfy its composition requirements"}
	}

	return next, nil
}
