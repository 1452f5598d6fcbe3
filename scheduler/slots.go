package scheduler

import "time"

// MinSlotStep is the smallest slot spacing in minutes; shorter durations are clamped up to it.
const MinSlotStep = 5

// ComputeSlots returns the bookable "HH:MM" start times for date in ascending order.
//
// A slot is offered only when its whole duration fits before the closing time. On the calendar day
// of now, slots starting at or before now are dropped; later days are never filtered by now.
// Times in booked are excluded. The date's location is the wall clock all times are read in.
func ComputeSlots(cfg *Config, date time.Time, booked []string, now time.Time) []string {
	slots := []string{}
	if cfg == nil {
		return slots
	}

	day := WeekdayOf(date)
	if !cfg.IsActive(day) {
		return slots
	}
	r, ok := cfg.TimeRanges[day]
	if !ok {
		return slots
	}
	start, end, err := r.Minutes()
	if err != nil {
		return slots
	}

	step := max(MinSlotStep, cfg.SlotDuration)

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	loc := date.Location()
	now = now.In(loc)
	y, m, d := date.Date()
	ny, nm, nd := now.Date()
	today := y == ny && m == nm && d == nd

	for t := start; t+step <= end; t += step {
		if today {
			slotStart := time.Date(y, m, d, t/60, t%60, 0, 0, loc)
			if !slotStart.After(now) {
				continue
			}
		}
		label := FormatClock(t)
		if _, ok := taken[label]; ok {
			continue
		}
		slots = append(slots, label)
	}

	return slots
}
