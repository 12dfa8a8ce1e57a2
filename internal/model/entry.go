package model

import (
	"encoding/json"
	"fmt"
)

// SpecEntry is one [name, spec] pair of a batch input.
type SpecEntry struct {
	Name string
	Spec ResourceSpec
}

// UnmarshalJSON decodes the two-element array form.
func (e *SpecEntry) UnmarshalJSON(data []byte) error {
	name, body, err := splitPair(data)
	if err != nil {
		return err
	}
	var spec ResourceSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		return fmt.Errorf("resource %q: %w", name, err)
	}
	*e = SpecEntry{Name: name, Spec: spec}
	return nil
}

// ParamsEntry is one [name, parameters] pair of a batch output.
type ParamsEntry struct {
	Name   string
	Params DerivedParameters
}

// MarshalJSON encodes the two-element array form.
func (e ParamsEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Name, e.Params})
}

// UnmarshalJSON decodes the two-element array form.
func (e *ParamsEntry) UnmarshalJSON(data []byte) error {
	name, body, err := splitPair(data)
	if err != nil {
		return err
	}
	var params DerivedParameters
	if err := json.Unmarshal(body, &params); err != nil {
		return fmt.Errorf("%w: resource %q: %v", ErrMalformedInput, name, err)
	}
	*e = ParamsEntry{Name: name, Params: params}
	return nil
}

func splitPair(data []byte) (string, json.RawMessage, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return "", nil, fmt.Errorf("%w: entry must be a [name, record] array: %v", ErrMalformedInput, err)
	}
	if len(pair) != 2 {
		return "", nil, fmt.Errorf("%w: entry must have 2 elements, got %d", ErrMalformedInput, len(pair))
	}
	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: entry name must be a string: %v", ErrMalformedInput, err)
	}
	if name == "" {
		return "", nil, fmt.Errorf("%w: entry name is empty", ErrMalformedInput)
	}
	return name, pair[1], nil
}
