package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE meeting_status AS ENUM ('joining', 'in_progress', 'completed', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		display_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL UNIQUE REFERENCES sessions(id) ON DELETE CASCADE,
		bot_id TEXT NOT NULL UNIQUE,
		meeting_url TEXT NOT NULL,
		status meeting_status NOT NULL DEFAULT 'joining',
		requested_by TEXT NOT NULL DEFAULT '',
		transcript JSONB,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ended_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendees (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		user_id TEXT,
		narrative TEXT NOT NULL DEFAULT '',
		speaking_seconds BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(session_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS turns (
		id UUID PRIMARY KEY,
		attendee_id UUID NOT NULL REFERENCES attendees(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		source_type TEXT NOT NULL DEFAULT 'live_capture',
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS placements (
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		turn_id UUID NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY(session_id, turn_id),
		UNIQUE(session_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_placements_session_position ON placements (session_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_attendees_session_name ON attendees (session_id, name)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
