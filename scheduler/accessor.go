package scheduler

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store reads and writes owner availability configurations.
type Store interface {
	UpsertConfig(ctx context.Context, cfg Config, now time.Time) (*Config, bool, error)
	GetConfig(ctx context.Context, ownerID uuid.UUID) (*Config, error)
}

// Accessor is the DB layer entrypoint for scheduler configuration queries.
type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}
