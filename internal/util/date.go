package util

import "time"

// WholeMonthsBetween returns the calendar-month difference between two
// dates, ignoring the day of month: Jan 31 to Feb 1 is one month. The
// result is negative when to precedes from.
func WholeMonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthsUntilByDays approximates the months remaining until target as
// whole 30-day blocks, clamped to at least one. Targets not in the future
// count as one month.
func MonthsUntilByDays(today, target time.Time) int {
	if !target.After(today) {
		return 1
	}
	days := int(target.Sub(today).Hours() / 24)
	months := days / 30
	if months < 1 {
		return 1
	}
	return months
}

// DateOnly truncates a time to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
