package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Relative dates look like "3 weeks ago", "in 2 months" or "10 days from now".
var (
	relativePastRe   = regexp.MustCompile(`^(\d+)\s+(year|month|week|day)s?\s+ago$`)
	relativeFutureRe = regexp.MustCompile(`^(?:in\s+(\d+)\s+(year|month|week|day)s?|(\d+)\s+(year|month|week|day)s?\s+from\s+now)$`)
)

// ParseRelativeDate converts strings like "2 weeks ago" or "in 3 days" into a
// calendar date relative to now. "today", "yesterday" and "tomorrow" are accepted too.
func ParseRelativeDate(s string, now time.Time) (time.Time, error) {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if m := relativePastRe.FindStringSubmatch(s); m != nil {
		value, _ := strconv.Atoi(m[1])
		return shiftDate(today, m[2], -value), nil
	}
	if m := relativeFutureRe.FindStringSubmatch(s); m != nil {
		num, unit := m[1], m[2]
		if num == "" {
			num, unit = m[3], m[4]
		}
		value, _ := strconv.Atoi(num)
		return shiftDate(today, unit, value), nil
	}
	return time.Time{}, fmt.Errorf("invalid relative date format: %s", s)
}

// shiftDate moves a date by n calendar units.
func shiftDate(d time.Time, unit string, n int) time.Time {
	switch unit {
	case "year":
		return d.AddDate(n, 0, 0)
	case "month":
		return d.AddDate(0, n, 0)
	case "week":
		return d.AddDate(0, 0, 7*n)
	default:
		return d.AddDate(0, 0, n)
	}
}

// ParseDateValue accepts YYYY-MM-DD or a relative date.
func ParseDateValue(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateFormat, s); err == nil {
		return d, nil
	}
	d, err := ParseRelativeDate(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or a relative date like \"2 weeks ago\": %w", err)
	}
	return d, nil
}
