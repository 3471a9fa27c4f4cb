package scheduler

import (
	"fmt"
	"time"

	"clinic-booking-api/internal/model"
)

// Clinic hours, minutes since midnight. A slot must start at or after
// opening and end at or before closing, so the last start is 22:00.
const (
	openMinute  = 9 * 60
	closeMinute = 23 * 60
	slotMinutes = int(model.SlotLength / time.Minute)
)

// parseClock reads "HH:MM" (24h) into minutes since midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// formatClock renders minutes since midnight as "HH:MM".
func formatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// atClock places minute on day's wall clock in loc, so DST transition days
// keep the requested hour.
func atClock(day time.Time, minute int, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc)
}

func withinHours(startMinute int) bool {
	return startMinute >= openMinute && startMinute+slotMinutes <= closeMinute
}

var dateLayouts = []string{time.DateOnly, time.RFC3339Nano, time.RFC3339}

// parseDay returns midnight of the requested calendar day in loc.
// Full timestamps are moved into loc before the day is taken.
func parseDay(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.DateOnly {
			t, err = time.ParseInLocation(layout, s, loc)
		} else {
			t, err = time.Parse(layout, s)
		}
		if err != nil {
			continue
		}
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// overlaps is the half-open test: [a,b) and [c,d) overlap iff a < d and c < b.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// conflicts reports whether [start,end) collides with any existing booking.
// An identical start is rejected on its own as well.
func conflicts(start, end time.Time, existing []model.Appointment, loc *time.Location) (*model.Appointment, bool) {
	for i := range existing {
		exStart := existing[i].StartIn(loc)
		exEnd := exStart.Add(model.SlotLength)
		if overlaps(start, end, exStart, exEnd) || start.Equal(exStart) {
			return &existing[i], true
		}
	}
	return nil, false
}
