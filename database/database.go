package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PoolOptions struct {
	MaxIdleConns int
	MaxOpenConns int
}

func Connect(dsn string, opts PoolOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return db, nil
}

// migrations are idempotent and applied in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scheduler_configs (
	owner_id UUID PRIMARY KEY,
	active_days JSONB NOT NULL DEFAULT '[]',
	time_ranges JSONB NOT NULL DEFAULT '{}',
	slot_duration INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	customer_id TEXT,
	visitor_name TEXT NOT NULL,
	visitor_phone TEXT NOT NULL,
	note TEXT,
	appointment_date DATE NOT NULL,
	appointment_time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Pending',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS appointments_owner_idx ON appointments (owner_id, appointment_date)`,
	// one live booking per owner slot; rejected rows free the slot again
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_live_slot_uniq ON appointments (owner_id, appointment_date, appointment_time) WHERE status <> 'Rejected'`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
