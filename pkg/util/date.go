package util

import (
	"strconv"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006/01/02", "2006-01-02 15:04:05"}

// ParseDate accepts ISO dates, RFC3339 timestamps and unix seconds. Results are in UTC.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// TradingDay truncates t to midnight of its calendar day in loc.
func TradingDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
