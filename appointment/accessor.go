package appointment

import (
	"context"
	"database/sql"
	"time"

	"card-scheduler/scheduler"

	"github.com/google/uuid"
)

type ConfigReader interface {
	GetConfig(ctx context.Context, ownerID uuid.UUID) (*scheduler.Config, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, value string) error
}

type Accessor struct {
	db       *sql.DB
	configs  ConfigReader
	locker   Locker
	lockTTL  time.Duration
	location *time.Location
}

func NewAccessor(db *sql.DB, configs ConfigReader) *Accessor {
	return &Accessor{
		db:       db,
		configs:  configs,
		location: time.Local,
	}
}

// WithLocker serializes concurrent bookings of the same slot through l.
func (a *Accessor) WithLocker(l Locker, ttl time.Duration) *Accessor {
	a.locker = l
	a.lockTTL = ttl
	return a
}

// WithLocation sets the wall clock appointment dates and times are read in.
func (a *Accessor) WithLocation(loc *time.Location) *Accessor {
	if loc != nil {
		a.location = loc
	}
	return a
}
