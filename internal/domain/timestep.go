package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestepInterval is the SYNOP publication cadence.
const TimestepInterval = 3 * time.Hour

// ErrInvalidTimestamp is returned when a stored or requested timestamp cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// naiveLayout is the zone-less ISO 8601 form written by earlier deployments.
const naiveLayout = "2006-01-02T15:04:05"

// NextTimestep returns the smallest 3-hour-aligned instant strictly after ref.
// The reference is floored to the hour, pushed to the next hour divisible by 3,
// then advanced in 3-hour steps while it is not after ref.
func NextTimestep(ref time.Time) time.Time {
	ref = ref.UTC()
	candidate := ref.Truncate(time.Hour)

	if rem := candidate.Hour() % 3; rem != 0 {
		candidate = candidate.Add(time.Duration(3-rem) * time.Hour)
	}

	for !candidate.After(ref) {
		candidate = candidate.Add(TimestepInterval)
	}
	return candidate
}

// IsTimestep reports whether t falls exactly on a SYNOP timestep.
func IsTimestep(t time.Time) bool {
	t = t.UTC()
	return t.Hour()%3 == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// SourceFileName returns the provider's file name for a timestep.
func SourceFileName(timestep time.Time) string {
	return fmt.Sprintf("SYNA0001_%s_180.DAT", timestep.UTC().Format("200601021504"))
}

// FormatTimestamp renders t as an ISO 8601 UTC string, the format used in the
// state file and by the query API.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTimestamp accepts RFC 3339 timestamps and zone-less ISO 8601
// timestamps. Zone-less values are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(naiveLayout, strings.SplitN(s, ".", 2)[0], time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
