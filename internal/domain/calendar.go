package domain

import "time"

// DayKey returns the calendar-day bucket key for a moment in the
// account's local time.
func DayKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// WeekStartKey returns the ISO-week bucket key: the Monday of the week
// containing now, in the account's local time.
func WeekStartKey(now time.Time, loc *time.Location) string {
	local := now.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started six days back
	}
	monday := local.AddDate(0, 0, -(weekday - 1))
	return monday.Format("2006-01-02")
}
