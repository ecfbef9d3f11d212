// Package schedule builds and compares the local-time stay windows that
// bound every access code.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a local wall-clock time of day (check-in or check-out).
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses "HH:MM". Malformed or out-of-range input falls back
// to the supplied default rather than failing configuration load.
func ParseClock(value string, fallback Clock) Clock {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return fallback
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return fallback
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return fallback
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fallback
	}
	return Clock{Hour: hour, Minute: minute}
}

// Window is a stay window in the property's local timezone. End is
// strictly after Start for any window produced by BuildWindow.
type Window struct {
	Start time.Time
	End   time.Time
}

// booking platforms send anything from bare dates to full RFC 3339
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseLocal parses an ISO-8601 timestamp or bare calendar date. A "Z"
// suffix means UTC; an explicit offset is honored; anything zoneless is
// interpreted as local to loc. The result is expressed in loc.
func ParseLocal(value string, loc *time.Location) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseRemoteTime parses a timestamp as reported by the lock service.
func ParseRemoteTime(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ApplyClock rewrites the time-of-day of t to the given clock, keeping
// the calendar date and location.
func ApplyClock(t time.Time, c Clock) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// BuildWindow turns raw arrival/departure values into a stay window:
// both are parsed in the property's timezone, then rewritten to the
// configured check-in and check-out clock times. Whatever time-of-day
// the source supplied is discarded.
func BuildWindow(arrivalRaw, departureRaw string, loc *time.Location, checkin, checkout Clock) (Window, error) {
	if strings.TrimSpace(arrivalRaw) == "" || strings.TrimSpace(departureRaw) == "" {
		return Window{}, ErrInvalidDate
	}

	arrival, ok := ParseLocal(arrivalRaw, loc)
	if !ok {
		return Window{}, ErrInvalidDate
	}
	departure, ok := ParseLocal(departureRaw, loc)
	if !ok {
		return Window{}, ErrInvalidDate
	}

	start := ApplyClock(arrival, checkin)
	end := ApplyClock(departure, checkout)

	if !end.After(start) {
		return Window{}, ErrInvalidWindow
	}

	return Window{Start: start, End: end}, nil
}

// WithinTolerance reports whether a and b are at most tolerance apart.
func WithinTolerance(a, b time.Time, tolerance time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// MatchesWithin reports whether both edges of the two windows are
// independently within tolerance. The midpoint is never compared.
func (w Window) MatchesWithin(other Window, tolerance time.Duration) bool {
	return WithinTolerance(w.Start, other.Start, tolerance) &&
		WithinTolerance(w.End, other.End, tolerance)
}
