package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

var durationUnits = map[string]float64{
	"weeks":        7 * 24 * 60 * 60,
	"days":         24 * 60 * 60,
	"hours":        60 * 60,
	"minutes":      60,
	"seconds":      1,
	"milliseconds": 1e-3,
	"microseconds": 1e-6,
}

// Duration is a time span in seconds. In JSON it is either a bare number of
// seconds or an object of unit keywords that are summed, e.g. {"days": 30}.
type Duration struct {
	seconds float64
}

// Seconds builds a Duration from a number of seconds.
func Seconds(s float64) Duration {
	return Duration{seconds: s}
}

// Seconds returns the span in seconds.
func (d Duration) Seconds() float64 {
	return d.seconds
}

// MarshalJSON encodes the span as a number of seconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.seconds)
}

// UnmarshalJSON decodes either form.
func (d *Duration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: duration is empty", ErrMalformedInput)
	}

	if data[0] != '{' {
		var secs float64
		if err := json.Unmarshal(data, &secs); err != nil {
			return fmt.Errorf("%w: duration: %v", ErrMalformedInput, err)
		}
		d.seconds = secs
		return nil
	}

	var parts map[string]float64
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: duration: %v", ErrMalformedInput, err)
	}

	keys := make([]string, 0, len(parts))
	for key := range parts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var total float64
	for _, key := range keys {
		unit, ok := durationUnits[key]
		if !ok {
			return fmt.Errorf("%w: unknown duration unit %q", ErrMalformedInput, key)
		}
		total += parts[key] * unit
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("%w: duration is not finite", ErrMalformedInput)
	}
	d.seconds = total
	return nil
}
