package db

import (
	"context"
	"fmt"
)

// schema is the full DDL, applied idempotently at startup. The unique
// index on team_members.user_id is load-bearing: it is the second safety
// net behind the coordinator's locking, making it physically impossible
// for one user to hold two memberships.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            uuid PRIMARY KEY,
	name          varchar(64) NOT NULL,
	employee_id   varchar(64) NOT NULL,
	role_category varchar(16) NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_employee_id_uniq ON users (employee_id);

CREATE TABLE IF NOT EXISTS teams (
	id            text PRIMARY KEY,
	name          varchar(32) NOT NULL DEFAULT '',
	status        varchar(24) NOT NULL DEFAULT 'forming',
	member_count  integer NOT NULL DEFAULT 0,
	rnd_count     integer NOT NULL DEFAULT 0,
	product_count integer NOT NULL DEFAULT 0,
	growth_count  integer NOT NULL DEFAULT 0,
	root_count    integer NOT NULL DEFAULT 0,
	created_at    timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS teams_status_idx ON teams (status);

CREATE TABLE IF NOT EXISTS team_members (
	team_id       text NOT NULL REFERENCES teams (id) ON DELETE CASCADE,
	user_id       uuid NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	role_category varchar(16) NOT NULL,
	joined_at     timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (team_id, user_id)
);
CREATE UNIQUE INDEX IF NOT EXISTS team_members_user_id_uniq ON team_members (user_id);
CREATE INDEX IF NOT EXISTS team_members_team_id_idx ON team_members (team_id);

CREATE TABLE IF NOT EXISTS meeting_registrations (
	user_id    uuid PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
	attending  boolean NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contest_signups (
	user_id    uuid PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
	status     varchar(24) NOT NULL DEFAULT 'registered',
	created_at timestamptz NOT NULL DEFAULT now()
);
`

// ApplySchema creates any missing tables and indexes. Safe to run on
// every startup.
func (db *DB) ApplySchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	db.logger.Info("database schema up to date")
	return nil
}
