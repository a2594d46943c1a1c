package handlers

import (
	"time"

	"github.com/okaokay/gestionale-energia/internal/timezone"
)

// Query dates are calendar days in the office timezone.

func parseDayParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", value, timezone.Location(timezone.DefaultTimezone))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dayRange turns from/to query values into [from, to+1day).
func dayRange(fromStr, toStr string) (from, to *time.Time) {
	if t, ok := parseDayParam(fromStr); ok {
		from = &t
	}
	if t, ok := parseDayParam(toStr); ok {
		end := t.AddDate(0, 0, 1)
		to = &end
	}
	return from, to
}
