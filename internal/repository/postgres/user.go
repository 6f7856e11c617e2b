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

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Upsert registers a user keyed by employee id. A single conflict-aware
// insert keeps it race-free: two concurrent first registrations with the
// same employee id both land on the same row instead of the loser
// tripping the unique index.
func (s *UserStore) Upsert(ctx context.Context, name, employeeID, roleCategory string) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, employee_id, role_category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id) DO UPDATE
			SET name = EXCLUDED.name, role_category = EXCLUDED.role_category
		RETURNING id, name, employee_id, role_category, created_at`

	var u models.User
	err := s.pool.QueryRow(ctx, query, uuid.New(), name, employeeID, roleCategory).Scan(
		&u.ID,
		&u.Name,
		&u.EmployeeID,
		&u.RoleCategory,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, employee_id, role_category, created_at
		FROM users
		WHERE id = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, userID).Scan(
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
