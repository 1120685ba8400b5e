package matching

import (
	"fmt"
	"strings"
	"time"
)

// DefaultAnchor is the weekday a match cycle starts on
const DefaultAnchor = time.Tuesday

// ReleaseHour is the UTC hour on the anchor day when matches are revealed
const ReleaseHour = 21

// WeekStart returns UTC midnight of the most recent anchor weekday at or before now.
// It never returns a future day.
func WeekStart(now time.Time, anchor time.Weekday) time.Time {
	now = now.UTC()
	back := (int(now.Weekday()) - int(anchor) + 7) % 7
	day := now.AddDate(0, 0, -back)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// IsReleaseTime reports whether now is on the anchor day at or after ReleaseHour UTC
func IsReleaseTime(now time.Time, anchor time.Weekday) bool {
	now = now.UTC()
	return now.Weekday() == anchor && now.Hour() >= ReleaseHour
}

// ParseWeek accepts "2006-01-02" or an RFC3339 timestamp and snaps it to its cycle start
func ParseWeek(raw string, anchor time.Weekday) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return WeekStart(t, anchor), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return WeekStart(t, anchor), nil
}

// ParseWeekday accepts an English weekday name, case-insensitively
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
