package scheduler

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weekday is a canonical English weekday name ("Monday".."Sunday").
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday name of the given date.
func WeekdayOf(date time.Time) Weekday {
	return weekdays[date.Weekday()]
}

// ParseWeekday accepts any casing of a weekday name and returns its canonical form.
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range weekdays {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

type TimeRange struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Minutes returns the open and close times as minutes since midnight.
func (r TimeRange) Minutes() (int, int, error) {
	start, err := ParseClock(r.Open)
	if err != nil {
		return 0, 0, fmt.Errorf("open: %w", err)
	}
	end, err := ParseClock(r.Close)
	if err != nil {
		return 0, 0, fmt.Errorf("close: %w", err)
	}
	return start, end, nil
}

type Config struct {
	OwnerID      uuid.UUID             `json:"userId"`
	ActiveDays   []Weekday             `json:"activeDays"`
	TimeRanges   map[Weekday]TimeRange `json:"timeRanges"`
	SlotDuration int                   `json:"slotDuration"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// IsActive reports whether the owner accepts appointments on the given weekday.
func (c *Config) IsActive(day Weekday) bool {
	for _, d := range c.ActiveDays {
		if d == day {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.OwnerID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if c.SlotDuration <= 0 {
		return errors.New("slot duration must be greater than 0")
	}
	for _, day := range c.ActiveDays {
		r, ok := c.TimeRanges[day]
		if !ok {
			return fmt.Errorf("no time range for active day %s", day)
		}
		start, end, err := r.Minutes()
		if err != nil {
			return fmt.Errorf("invalid time range for %s: %w", day, err)
		}
		if start >= end {
			return fmt.Errorf("time range for %s must open before it closes", day)
		}
	}
	return nil
}

// ParseClock converts "HH:MM" to minutes since midnight. Both fields must be exactly two digits.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || !twoDigits(h) || !twoDigits(m) {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	hour, _ := strconv.Atoi(h)
	if hour > 23 {
		return 0, fmt.Errorf("invalid hour: %q", s)
	}
	minute, _ := strconv.Atoi(m)
	if minute > 59 {
		return 0, fmt.Errorf("invalid minute: %q", s)
	}
	return hour*60 + minute, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// FormatClock converts minutes since midnight to zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type DaysColumn []Weekday

// Value implements driver.Valuer for INSERT/UPDATE.
func (d DaysColumn) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for SELECT.
func (d *DaysColumn) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("not a []byte: %T", value)
	}
	return json.Unmarshal(b, d)
}

type RangesColumn map[Weekday]TimeRange

// Value implements driver.Valuer for INSERT/UPDATE.
func (r RangesColumn) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for SELECT.
func (r *RangesColumn) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("not a []byte: %T", value)
	}
	return json.Unmarshal(b, r)
}
