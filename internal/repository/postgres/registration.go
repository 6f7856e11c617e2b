package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lalith-99/teamup/internal/models"
)

type RegistrationStore struct {
	pool *pgxpool.Pool
}

func NewRegistrationStore(pool *pgxpool.Pool) *RegistrationStore {
	return &RegistrationStore{pool: pool}
}

func (s *RegistrationStore) SetMeetingAttendance(ctx context.Context, userID uuid.UUID, attending bool) error {
	query := `
		INSERT INTO meeting_registrations (user_id, attending)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET attending = EXCLUDED.attending`

	if _, err := s.pool.Exec(ctx, query, userID, attending); err != nil {
		return fmt.Errorf("set meeting attendance: %w", err)
	}
	return nil
}

func (s *RegistrationStore) SignupContest(ctx context.Context, userID uuid.UUID) error {
	// signing up twice is a no-op, not an error
	query := `
		INSERT INTO contest_signups (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("contest signup: %w", err)
	}
	return nil
}

func (s *RegistrationStore) BackfillMeeting(ctx context.Context) error {
	query := `
		INSERT INTO meeting_registrations (user_id, attending)
		SELECT id, true FROM users u
		WHERE NOT EXISTS (
			SELECT 1 FROM meeting_registrations r WHERE r.user_id = u.id
		)`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("backfill meeting registrations: %w", err)
	}
	return nil
}

func (s *RegistrationStore) ListMeeting(ctx context.Context, attending bool) ([]models.MeetingRegistration, error) {
	query := `
		SELECT r.user_id, u.name, u.employee_id, u.role_category, r.attending, r.created_at
		FROM meeting_registrations r
		INNER JOIN users u ON u.id = r.user_id
		WHERE r.attending = $1
		ORDER BY r.created_at`

	rows, err := s.pool.Query(ctx, query, attending)
	if err != nil {
		return nil, fmt.Errorf("list meeting registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]models.MeetingRegistration, 0)
	for rows.Next() {
		var r models.MeetingRegistration
		if err := rows.Scan(&r.UserID, &r.Name, &r.EmployeeID, &r.RoleCategory, &r.Attending, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meeting registration: %w", err)
		}
		regs = append(regs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meeting registrations: %w", err)
	}

	return regs, nil
}

func (s *RegistrationStore) ListContest(ctx context.Context) ([]models.ContestSignup, error) {
	query := `
		SELECT c.user_id, u.name, u.employee_id, u.role_category, c.status, c.created_at
		FROM contest_signups c
		INNER JOIN users u ON u.id = c.user_id
		ORDER BY c.created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contest signups: %w", err)
	}
	defer rows.Close()

	signups := make([]models.ContestSignup, 0)
	for rows.Next() {
		var c models.ContestSignup
		if err := rows.Scan(&c.UserID, &c.Name, &c.EmployeeID, &c.RoleCategory, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contest signup: %w", err)
		}
		signups = append(signups, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contest signups: %w", err)
	}

	return signups, nil
}
