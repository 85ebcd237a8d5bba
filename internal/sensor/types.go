package sensor

import (
	"errors"
	"fmt"
	"time"
)

// Reading is one stored sensor measurement.
type Reading struct {
	ID          int64     `json:"id"`
	SensorID    int64     `json:"sensor_id"`
	Temperatura float64   `json:"temperatura"`
	Timestamp   time.Time `json:"timestamp"`
}

// Sentinel errors for reading store operations.
var (
	// ErrInvalidRange is returned when a time-range query has a missing or
	// malformed bound.
	ErrInvalidRange = errors.New("invalid time range")
)

// dateOnlyLayout is the bare-date timestamp layout.
const dateOnlyLayout = "2006-01-02"

// timestampLayouts are the accepted formats for caller-supplied timestamps
// and range bounds, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	dateOnlyLayout,
}

// ParseTimestamp parses a caller-supplied timestamp in any accepted layout.
// A bare date parses to midnight UTC; range queries widen a date-only end
// bound to the end of that day so the bound stays inclusive.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// isDateOnly reports whether the value is a bare date with no time of day.
func isDateOnly(value string) bool {
	_, err := time.Parse(dateOnlyLayout, value)
	return err == nil
}
