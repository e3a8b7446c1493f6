package schedule

import (
	"time"

	"github.com/crucial707/cloudscan/internal/models"
)

// NextOccurrence returns the next absolute time strictly after now that
// matches the schedule. All math is done in UTC; the result is always in the
// future relative to now. An unknown or missing frequency is treated as daily.
func NextOccurrence(spec models.ScheduleSpec, now time.Time) time.Time {
	now = now.UTC()
	switch spec.Frequency {
	case models.FrequencyWeekly:
		return nextWeekly(spec, now)
	case models.FrequencyMonthly:
		return nextMonthly(spec, now)
	default:
		return nextDaily(spec, now)
	}
}

func nextDaily(spec models.ScheduleSpec, now time.Time) time.Time {
	next := atHour(now.Year(), now.Month(), now.Day(), spec.HourUTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func nextWeekly(spec models.ScheduleSpec, now time.Time) time.Time {
	target := int(now.Weekday())
	if spec.DayOfWeek != nil {
		target = *spec.DayOfWeek
	}
	delta := (target - int(now.Weekday()) + 7) % 7

	next := atHour(now.Year(), now.Month(), now.Day(), spec.HourUTC).AddDate(0, 0, delta)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func nextMonthly(spec models.ScheduleSpec, now time.Time) time.Time {
	dom := 1
	if spec.DayOfMonth != nil {
		dom = *spec.DayOfMonth
	}

	next := atDayClamped(now.Year(), now.Month(), dom, spec.HourUTC)
	if !next.After(now) {
		// Advance from the requested day-of-month, not the clamped one, so a
		// 31st schedule lands back on the 31st once months are long enough.
		next = atDayClamped(next.Year(), next.Month()+1, dom, spec.HourUTC)
	}
	return next
}

// atDayClamped builds a UTC timestamp on the given day of month, clamping to
// the last day when the month is shorter (e.g. day 31 in February -> Feb 28/29).
func atDayClamped(year int, month time.Month, day, hour int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return atHour(year, month, day, hour)
}

func atHour(year int, month time.Month, day, hour int) time.Time {
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

// daysInMonth handles month overflow (month 13 normalizes into the next year).
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
