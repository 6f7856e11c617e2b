package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lalith-99/teamup/internal/models"
	"github.com/lalith-99/teamup/internal/teamup"
)

type TeamStore struct {
	pool *pgxpool.Pool
}

func NewTeamStore(pool *pgxpool.Pool) *TeamStore {
	return &TeamStore{pool: pool}
}

// Seed inserts any missing pool ids. ON CONFLICT DO NOTHING makes it
// idempotent and safe under concurrent callers.
func (s *TeamStore) Seed(ctx context.Context, ids []string) error {
	query := `
		INSERT INTO teams (id)
		SELECT unnest($1::text[])
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("seed teams: %w", err)
	}
	return nil
}

func (s *TeamStore) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT id, name, status, member_count, rnd_count, product_count, growth_count, root_count, created_at
		FROM teams
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Status,
			&t.MemberCount,
			&t.RNDCount,
			&t.ProductCount,
			&t.GrowthCount,
			&t.RootCount,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	return teams, nil
}

// Rename sets the team's display name after verifying the caller is a
// member. The team row is locked for the check-then-write.
func (s *TeamStore) Rename(ctx context.Context, teamID string, userID uuid.UUID, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, teamID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return teamup.ErrTeamNotFound
		}
		return fmt.Errorf("lock team: %w", err)
	}

	var isMember bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND user_id = $2
		)`, teamID, userID).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return teamup.ErrNotTeamMember
	}

	if _, err := tx.Exec(ctx, `UPDATE teams SET name = $2 WHERE id = $1`, teamID, name); err != nil {
		return fmt.Errorf("rename team: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
