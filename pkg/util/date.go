package util

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date used as the key of every series.
// Strings in this layout sort lexicographically in date order.
const DateLayout = "2006-01-02"

// FormatDate renders t as an ISO calendar date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO calendar date as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDateLayouts tries each layout in turn and returns the ISO date of the first match.
func ParseDateLayouts(s string, layouts ...string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t), true
		}
	}
	return "", false
}

// CalendarDay drops the clock part of t, keeping the calendar date in t's location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SubYears moves t back n years. A 29 February that has no counterpart clamps
// to the last day of February instead of rolling into March.
func SubYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := y - n
	if last := DaysIn(target, m); d > last {
		d = last
	}
	return time.Date(target, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn reports the number of days of month m in year y.
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, DaysIn(y, m), 0, 0, 0, 0, time.UTC)
}

// MinDate returns the earlier of two ISO dates. Empty strings are ignored.
func MinDate(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case a < b:
		return a
	}
	return b
}

// PreviousWeekdays returns the n weekdays strictly before t, oldest first.
func PreviousWeekdays(t time.Time, n int) []string {
	out := make([]string, 0, n)
	day := CalendarDay(t)
	for len(out) < n {
		day = day.AddDate(0, 0, -1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, FormatDate(day))
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
