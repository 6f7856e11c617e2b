package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lalith-99/teamup/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) TeamIDForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `
		SELECT team_id
		FROM team_members
		WHERE user_id = $1`

	var teamID string
	err := s.pool.QueryRow(ctx, query, userID).Scan(&teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get team for user: %w", err)
	}
	return teamID, nil
}

func (s *MembershipStore) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	query := `
		SELECT m.team_id, m.user_id, u.name, u.role_category
		FROM team_members m
		INNER JOIN users u ON u.id = m.user_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Name, &m.RoleCategory); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
