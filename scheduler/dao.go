package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpsertConfig creates the owner's configuration or fully replaces the existing one.
// The returned bool is true when a new row was created.
func (a *Accessor) UpsertConfig(ctx context.Context, cfg Config, now time.Time) (*Config, bool, error) {
	if cfg.OwnerID == uuid.Nil {
		return nil, false, errors.New("user ID is required")
	}

	query := `INSERT INTO scheduler_configs (owner_id, active_days, time_ranges, slot_duration, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (owner_id) DO UPDATE SET active_days = EXCLUDED.active_days, time_ranges = EXCLUDED.time_ranges, slot_duration = EXCLUDED.slot_duration, updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at, (xmax = 0) AS inserted`

	stored := cfg
	var inserted bool
	row := a.db.QueryRowContext(ctx, query, cfg.OwnerID, DaysColumn(cfg.ActiveDays), RangesColumn(cfg.TimeRanges), cfg.SlotDuration, now)
	if err := row.Scan(&stored.CreatedAt, &stored.UpdatedAt, &inserted); err != nil {
		return nil, false, fmt.Errorf("scan: %w", err)
	}

	return &stored, inserted, nil
}

// GetConfig returns nil without an error when the owner never saved a configuration.
func (a *Accessor) GetConfig(ctx context.Context, ownerID uuid.UUID) (*Config, error) {
	var cfg Config
	var days DaysColumn
	var ranges RangesColumn

	query := `SELECT owner_id, active_days, time_ranges, slot_duration, created_at, updated_at FROM scheduler_configs WHERE owner_id = $1`
	row := a.db.QueryRowContext(ctx, query, ownerID)
	if err := row.Scan(&cfg.OwnerID, &days, &ranges, &cfg.SlotDuration, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	cfg.ActiveDays = []Weekday(days)
	cfg.TimeRanges = map[Weekday]TimeRange(ranges)

	return &cfg, nil
}
