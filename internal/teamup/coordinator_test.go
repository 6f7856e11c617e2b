package teamup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/models"
)

// memStore is an in-memory Store for coordinator tests. A single mutex
// plays the role of the database's row locks: every transaction is
// serialized, mutations happen on copies, and only a nil return commits
// them back.
type memStore struct {
	mu      sync.Mutex
	teams   map[string]models.Team
	members map[uuid.UUID]models.Membership
	users   map[uuid.UUID]models.User

	// pending transient failures to inject before transactions succeed
	contentions int
}

func newMemStore() *memStore {
	return &memStore{
		teams:   make(map[string]models.Team),
		members: make(map[uuid.UUID]models.Membership),
		users:   make(map[uuid.UUID]models.User),
	}
}

type memTx struct {
	teams   map[string]models.Team
	members map[uuid.UUID]models.Membership
	users   map[uuid.UUID]models.User
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contentions > 0 {
		s.contentions--
		return ErrContention
	}

	tx := &memTx{
		teams:   make(map[string]models.Team, len(s.teams)),
		members: make(map[uuid.UUID]models.Membership, len(s.members)),
		users:   s.users,
	}
	for k, v := range s.teams {
		tx.teams[k] = v
	}
	for k, v := range s.members {
		tx.members[k] = v
	}

	if err := fn(tx); err != nil {
		return err // rollback: copies are discarded
	}
	s.teams = tx.teams
	s.members = tx.members
	return nil
}

func (tx *memTx) MembershipForUpdate(_ context.Context, userID uuid.UUID) (*models.Membership, error) {
	if m, ok := tx.members[userID]; ok {
		return &m, nil
	}
	return nil, nil
}

func (tx *memTx) TeamForUpdate(_ context.Context, teamID string) (*models.Team, error) {
	if t, ok := tx.teams[teamID]; ok {
		return &t, nil
	}
	return nil, nil
}

func (tx *memTx) UserByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if u, ok := tx.users[userID]; ok {
		return &u, nil
	}
	return nil, nil
}

func (tx *memTx) InsertMembership(_ context.Context, teamID string, userID uuid.UUID, role Role) error {
	if _, ok := tx.members[userID]; ok {
		return ErrContention
	}
	tx.members[userID] = models.Membership{
		TeamID:       teamID,
		UserID:       userID,
		RoleCategory: string(role),
		JoinedAt:     time.Now(),
	}
	return nil
}

func (tx *memTx) DeleteMembership(_ context.Context, userID uuid.UUID) error {
	delete(tx.members, userID)
	return nil
}

func (tx *memTx) SetTeamCounts(_ context.Context, teamID string, c Counts) error {
	t := tx.teams[teamID]
	ApplyCounts(&t, c)
	tx.teams[teamID] = t
	return nil
}

func (s *memStore) addTeam(id string, status models.TeamStatus, c Counts) {
	t := models.Team{ID: id, Status: status}
	ApplyCounts(&t, c)
	s.teams[id] = t
}

func (s *memStore) addUser(role Role) uuid.UUID {
	id := uuid.New()
	s.users[id] = models.User{ID: id, Name: "u-" + id.String()[:8], RoleCategory: string(role)}
	return id
}

func (s *memStore) counts(teamID string) Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.teams[teamID]
	return Counts{
		Total:   t.MemberCount,
		RND:     t.RNDCount,
		Product: t.ProductCount,
		Growth:  t.GrowthCount,
		Root:    t.RootCount,
	}
}

func newTestCoordinator(s *memStore) *Coordinator {
	c := NewCoordinator(s, zap.NewNop())
	c.backoff = time.Millisecond
	return c
}

func TestJoinHappyPathAndIdempotentRejoin(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	userID := s.addUser(RoleRND)
	c := newTestCoordinator(s)

	for i := 0; i < 2; i++ {
		teamID, err := c.Join(ctx, userID, "T01")
		if err != nil {
			t.Fatalf("join attempt %d: %v", i+1, err)
		}
		if teamID != "T01" {
			t.Fatalf("join returned team %q, want T01", teamID)
		}
	}

	if got := s.counts("T01"); got != (Counts{Total: 1, RND: 1}) {
		t.Fatalf("counts after double join = %+v, want exactly one member", got)
	}
	if len(s.members) != 1 {
		t.Fatalf("membership rows = %d, want 1", len(s.members))
	}
}

func TestJoinRejectsSecondTeam(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	s.addTeam("T02", models.TeamForming, Counts{})
	userID := s.addUser(RoleProduct)
	c := newTestCoordinator(s)

	if _, err := c.Join(ctx, userID, "T01"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := c.Join(ctx, userID, "T02")
	var aot *AlreadyOnTeamError
	if !errors.As(err, &aot) {
		t.Fatalf("second join error = %v, want *AlreadyOnTeamError", err)
	}
	if aot.TeamID != "T01" {
		t.Fatalf("AlreadyOnTeamError.TeamID = %q, want T01", aot.TeamID)
	}
}

func TestJoinFailureModes(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamLocked, Counts{})
	userID := s.addUser(RoleRND)
	c := newTestCoordinator(s)

	if _, err := c.Join(ctx, userID, "T99"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("unknown team: err = %v, want ErrTeamNotFound", err)
	}
	if _, err := c.Join(ctx, userID, "T01"); !errors.Is(err, ErrTeamLocked) {
		t.Fatalf("locked team: err = %v, want ErrTeamLocked", err)
	}

	ghost := uuid.New()
	s.addTeam("T02", models.TeamForming, Counts{})
	if _, err := c.Join(ctx, ghost, "T02"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user: err = %v, want ErrUserNotFound", err)
	}
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	userID := s.addUser(RoleGrowth)
	c := newTestCoordinator(s)

	// leaving with no membership is a no-op
	if err := c.Leave(ctx, userID); err != nil {
		t.Fatalf("no-op leave: %v", err)
	}

	if _, err := c.Join(ctx, userID, "T01"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := c.Leave(ctx, userID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := s.counts("T01"); got != (Counts{}) {
		t.Fatalf("counts after leave = %+v, want zeros", got)
	}

	// members of a locked team cannot leave
	if _, err := c.Join(ctx, userID, "T01"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	lockTeam(s, "T01")
	if err := c.Leave(ctx, userID); !errors.Is(err, ErrTeamLocked) {
		t.Fatalf("leave locked: err = %v, want ErrTeamLocked", err)
	}
}

func lockTeam(s *memStore, teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.teams[teamID]
	t.Status = models.TeamLocked
	s.teams[teamID] = t
}

func TestLeaveCleansUpOrphanedMembership(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	userID := s.addUser(RoleRND)
	c := newTestCoordinator(s)

	if _, err := c.Join(ctx, userID, "T01"); err != nil {
		t.Fatalf("join: %v", err)
	}
	s.mu.Lock()
	delete(s.teams, "T01")
	s.mu.Unlock()

	if err := c.Leave(ctx, userID); err != nil {
		t.Fatalf("orphan leave: %v", err)
	}
	if len(s.members) != 0 {
		t.Fatalf("orphaned membership not deleted")
	}
}

// Traces the exact sequence from the composition rules: four joins fill
// T01 to a valid four-member shape, the founding RND member leaves, and
// a GROWTH joiner is still accepted because one seat can cover the one
// remaining RND shortfall.
func TestJoinLeaveScenario(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	c := newTestCoordinator(s)

	a := s.addUser(RoleRND)
	b := s.addUser(RoleRND)
	cc := s.addUser(RoleProduct)
	d := s.addUser(RoleGrowth)
	e := s.addUser(RoleGrowth)

	for _, id := range []uuid.UUID{a, b, cc, d} {
		if _, err := c.Join(ctx, id, "T01"); err != nil {
			t.Fatalf("setup join: %v", err)
		}
	}
	if got := s.counts("T01"); got != (Counts{Total: 4, RND: 2, Product: 1, Growth: 1}) {
		t.Fatalf("counts after four joins = %+v", got)
	}

	if err := c.Leave(ctx, a); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := s.counts("T01"); got != (Counts{Total: 3, RND: 1, Product: 1, Growth: 1}) {
		t.Fatalf("counts after leave = %+v", got)
	}

	if _, err := c.Join(ctx, e, "T01"); err != nil {
		t.Fatalf("GROWTH join with one fixable shortfall: %v", err)
	}
	if got := s.counts("T01"); got != (Counts{Total: 4, RND: 1, Product: 1, Growth: 2}) {
		t.Fatalf("final counts = %+v", got)
	}
}

// N concurrent joins racing for one remaining seat: exactly one wins.
func TestConcurrentJoinsLastSlot(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{Total: 4, RND: 1, Product: 1, Growth: 1, Root: 1})
	c := newTestCoordinator(s)

	const racers = 8
	ids := make([]uuid.UUID, racers)
	for i := range ids {
		ids[i] = s.addUser(RoleRND)
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Join(ctx, ids[i], "T01")
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var pe *PolicyError
		if !errors.As(err, &pe) {
			t.Fatalf("loser error = %v, want *PolicyError", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if got := s.counts("T01"); got.Total != 5 || got.RND != 2 {
		t.Fatalf("final counts = %+v, want total 5 / RND 2", got)
	}
}

func TestContentionRetries(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addTeam("T01", models.TeamForming, Counts{})
	userID := s.addUser(RoleRND)
	c := newTestCoordinator(s)

	s.contentions = 2
	if _, err := c.Join(ctx, userID, "T01"); err != nil {
		t.Fatalf("join with two transient aborts: %v", err)
	}

	// exhausted retries surface ErrContention to the caller
	other := s.addUser(RoleRND)
	s.contentions = 5
	if _, err := c.Join(ctx, other, "T01"); !errors.Is(err, ErrContention) {
		t.Fatalf("exhausted retries: err = %v, want ErrContention", err)
	}
}
