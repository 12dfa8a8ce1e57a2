package model

import "errors"

// Derivation failure classes. Callers match them with errors.Is; the wrapped
// message carries the offending quantity.
var (
	ErrInvalidDuration        = errors.New("invalid duration")
	ErrInvalidCurveParameters = errors.New("invalid curve parameters")
	ErrOverflow               = errors.New("overflow")
	ErrMalformedInput         = errors.New("malformed input")
)
