package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lalith-99/teamup/internal/models"
	"github.com/lalith-99/teamup/internal/teamup"
)

// TeamupStore implements teamup.Store on Postgres. Row locks come from
// SELECT ... FOR UPDATE, so two joins against the same team serialize
// while joins against different teams run fully in parallel.
type TeamupStore struct {
	pool *pgxpool.Pool
}

func NewTeamupStore(pool *pgxpool.Pool) *TeamupStore {
	return &TeamupStore{pool: pool}
}

func (s *TeamupStore) InTx(ctx context.Context, fn func(tx teamup.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// rollback after a successful commit is a no-op error we ignore
	defer tx.Rollback(ctx)

	if err := fn(&teamupTx{tx: tx}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// classify maps transient Postgres aborts onto teamup.ErrContention so
// the coordinator can retry them: serialization failure, deadlock
// victim, lock timeout, and the unique-index race on
// team_members.user_id (two first-joins by the same user race past the
// membership read because there is no row to lock yet; the second
// insert trips the index, and the retry re-reads and resolves).
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "23505":
			return fmt.Errorf("%w: %v", teamup.ErrContention, err)
		}
	}
	return err
}

type teamupTx struct {
	tx pgx.Tx
}

func (t *teamupTx) MembershipForUpdate(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT team_id, user_id, role_category, joined_at
		FROM team_members
		WHERE user_id = $1
		FOR UPDATE`

	var m models.Membership
	err := t.tx.QueryRow(ctx, query, userID).Scan(
		&m.TeamID,
		&m.UserID,
		&m.RoleCategory,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock membership: %w", err)
	}
	return &m, nil
}

func (t *teamupTx) TeamForUpdate(ctx context.Context, teamID string) (*models.Team, error) {
	query := `
		SELECT id, name, status, member_count, rnd_count, product_count, growth_count, root_count, created_at
		FROM teams
		WHERE id = $1
		FOR UPDATE`

	var tm models.Team
	err := t.tx.QueryRow(ctx, query, teamID).Scan(
		&tm.ID,
		&tm.Name,
		&tm.Status,
		&tm.MemberCount,
		&tm.RNDCount,
		&tm.ProductCount,
		&tm.GrowthCount,
		&tm.RootCount,
		&tm.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock team: %w", err)
	}
	return &tm, nil
}

func (t *teamupTx) UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, employee_id, role_category, created_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := t.tx.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Name,
		&u.EmployeeID,
		&u.RoleCategory,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (t *teamupTx) InsertMembership(ctx context.Context, teamID string, userID uuid.UUID, role teamup.Role) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role_category)
		VALUES ($1, $2, $3)`

	if _, err := t.tx.Exec(ctx, query, teamID, userID, string(role)); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (t *teamupTx) DeleteMembership(ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM team_members
		WHERE user_id = $1`

	if _, err := t.tx.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (t *teamupTx) SetTeamCounts(ctx context.Context, teamID string, c teamup.Counts) error {
	query := `
		UPDATE teams
		SET member_count = $2, rnd_count = $3, product_count = $4, growth_count = $5, root_count = $6
		WHERE id = $1`

	if _, err := t.tx.Exec(ctx, query, teamID, c.Total, c.RND, c.Product, c.Growth, c.Root); err != nil {
		return fmt.Errorf("update team counts: %w", err)
	}
	return nil
}
