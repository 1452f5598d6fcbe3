package scheduler_test

import (
	"card-scheduler/scheduler"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "9:30", wantErr: true},
		{in: "+9:30", wantErr: true},
		{in: "10:+0", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "012:00", wantErr: true},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "12:3", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := scheduler.ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, scheduler.FormatClock(got)))
		})
	}
}

func mustParse(t *testing.T, s string) int {
	t.Helper()
	m, err := scheduler.ParseClock(s)
	require.NoError(t, err)
	return m
}

func TestWeekday(t *testing.T) {
	d, err := scheduler.ParseWeekday("  monday ")
	require.NoError(t, err)
	assert.Equal(t, scheduler.Monday, d)

	_, err = scheduler.ParseWeekday("Funday")
	require.Error(t, err)

	assert.Equal(t, scheduler.Saturday, scheduler.WeekdayOf(time.Date(2026, time.October, 24, 15, 0, 0, 0, time.UTC)))
}

func TestConfigValidate(t *testing.T) {
	valid := func() scheduler.Config {
		return scheduler.Config{
			OwnerID:      uuid.New(),
			ActiveDays:   []scheduler.Weekday{scheduler.Monday},
			TimeRanges:   map[scheduler.Weekday]scheduler.TimeRange{scheduler.Monday: {Open: "09:00", Close: "17:00"}},
			SlotDuration: 30,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("range for inactive day is allowed", func(t *testing.T) {
		cfg := valid()
		cfg.TimeRanges[scheduler.Sunday] = scheduler.TimeRange{Open: "10:00", Close: "11:00"}
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing owner", func(t *testing.T) {
		cfg := valid()
		cfg.OwnerID = uuid.Nil
		require.ErrorContains(t, cfg.Validate(), "user ID is required")
	})

	t.Run("non positive duration", func(t *testing.T) {
		cfg := valid()
		cfg.SlotDuration = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("active day without range", func(t *testing.T) {
		cfg := valid()
		cfg.ActiveDays = append(cfg.ActiveDays, scheduler.Tuesday)
		require.ErrorContains(t, cfg.Validate(), "Tuesday")
	})

	t.Run("open not before close", func(t *testing.T) {
		cfg := valid()
		cfg.TimeRanges[scheduler.Monday] = scheduler.TimeRange{Open: "17:00", Close: "17:00"}
		require.Error(t, cfg.Validate())
	})

	t.Run("bad clock", func(t *testing.T) {
		cfg := valid()
		cfg.TimeRanges[scheduler.Monday] = scheduler.TimeRange{Open: "9am", Close: "17:00"}
		require.Error(t, cfg.Validate())
	})
}

func TestColumns(t *testing.T) {
	days := scheduler.DaysColumn{scheduler.Monday, scheduler.Friday}
	v, err := days.Value()
	require.NoError(t, err)

	var scanned scheduler.DaysColumn
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, days, scanned)

	var empty scheduler.DaysColumn
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var ranges scheduler.RangesColumn
	require.Error(t, ranges.Scan("not bytes"))
	require.NoError(t, ranges.Scan(nil))
	assert.Nil(t, ranges)
}
