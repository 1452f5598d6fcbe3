package scheduler_test

import (
	"card-scheduler/scheduler"
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	testifymock.Mock
}

func (m *MockStore) UpsertConfig(ctx context.Context, cfg scheduler.Config, now time.Time) (*scheduler.Config, bool, error) {
	args := m.Called(ctx, cfg, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*scheduler.Config), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetConfig(ctx context.Context, ownerID uuid.UUID) (*scheduler.Config, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Config), args.Error(1)
}

func TestCachedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zerolog.New(io.Discard)
	next := new(MockStore)
	store := scheduler.NewCachedStore(next, rdb, time.Minute, &logger)

	ownerID := uuid.New()
	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	cfg := &scheduler.Config{
		OwnerID:      ownerID,
		ActiveDays:   []scheduler.Weekday{scheduler.Monday},
		TimeRanges:   map[scheduler.Weekday]scheduler.TimeRange{scheduler.Monday: {Open: "10:00", Close: "12:00"}},
		SlotDuration: 30,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t.Run("miss then hit", func(t *testing.T) {
		next.On("GetConfig", testifymock.Anything, ownerID).Return(cfg, nil).Once()

		got, err := store.GetConfig(testContext(t), ownerID)
		require.NoError(t, err)
		assert.Equal(t, cfg.TimeRanges, got.TimeRanges)
		assert.True(t, mr.Exists("scheduler:config:"+ownerID.String()))

		got, err = store.GetConfig(testContext(t), ownerID)
		require.NoError(t, err)
		assert.Equal(t, cfg.ActiveDays, got.ActiveDays)
		assert.True(t, cfg.CreatedAt.Equal(got.CreatedAt))

		next.AssertExpectations(t)
	})

	t.Run("upsert refreshes the cached entry", func(t *testing.T) {
		replaced := *cfg
		replaced.SlotDuration = 15
		next.On("UpsertConfig", testifymock.Anything, replaced, now).Return(&replaced, false, nil).Once()

		_, created, err := store.UpsertConfig(testContext(t), replaced, now)
		require.NoError(t, err)
		assert.False(t, created)

		got, err := store.GetConfig(testContext(t), ownerID)
		require.NoError(t, err)
		assert.Equal(t, 15, got.SlotDuration)

		next.AssertExpectations(t)
	})

	t.Run("late fill does not overwrite a fresh upsert", func(t *testing.T) {
		racer := uuid.New()
		old := *cfg
		old.OwnerID = racer
		fresh := old
		fresh.SlotDuration = 45

		// The fill reads the old row, then the upsert commits and caches before the fill writes.
		next.On("UpsertConfig", testifymock.Anything, fresh, now).Return(&fresh, false, nil).Once()
		next.On("GetConfig", testifymock.Anything, racer).Return(&old, nil).Once().
			Run(func(testifymock.Arguments) {
				_, _, err := store.UpsertConfig(context.Background(), fresh, now)
				assert.NoError(t, err)
			})

		got, err := store.GetConfig(testContext(t), racer)
		require.NoError(t, err)
		assert.Equal(t, 30, got.SlotDuration)

		got, err = store.GetConfig(testContext(t), racer)
		require.NoError(t, err)
		assert.Equal(t, 45, got.SlotDuration)

		next.AssertExpectations(t)
	})

	t.Run("absent config is not cached", func(t *testing.T) {
		missing := uuid.New()
		next.On("GetConfig", testifymock.Anything, missing).Return(nil, nil).Twice()

		got, err := store.GetConfig(testContext(t), missing)
		require.NoError(t, err)
		assert.Nil(t, got)
		got, err = store.GetConfig(testContext(t), missing)
		require.NoError(t, err)
		assert.Nil(t, got)

		next.AssertExpectations(t)
	})

	t.Run("redis down falls through", func(t *testing.T) {
		downed := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
		t.Cleanup(func() { _ = downed.Close() })
		s := scheduler.NewCachedStore(next, downed, time.Minute, &logger)

		next.On("GetConfig", testifymock.Anything, ownerID).Return(cfg, nil).Once()
		got, err := s.GetConfig(testContext(t), ownerID)
		require.NoError(t, err)
		assert.Equal(t, ownerID, got.OwnerID)

		next.AssertExpectations(t)
	})
}
