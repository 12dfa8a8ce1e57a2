package derive

import (
	"fmt"
	"math"

	gmath "github.com/ethereum/go-ethereum/common/math"

	"rcparams/internal/model"
)

// unitExponent returns the smallest e >= 0 with base^e * poolEqRaw >= small.
// The logarithm gives the candidate; the loops correct for float rounding at
// exact powers.
func unitExponent(poolEqRaw float64, small uint64, base uint8) (uint8, error) {
	if small == 0 {
		return 0, nil
	}

	guess := math.Ceil(math.Log(float64(small)/poolEqRaw) / math.Log(float64(base)))
	if math.IsNaN(guess) || guess < 0 {
		guess = 0
	}
	if guess > math.MaxUint8 {
		return 0, fmt.Errorf("%w: resource_unit_exponent %.0f exceeds 8 bits", model.ErrOverflow, guess)
	}

	exp := int(guess)
	for exp > 0 {
		scale, err := unitScale(base, uint8(exp-1))
		if err != nil || scale*poolEqRaw < float64(small) {
			break
		}
		exp--
	}
	for {
		scale, err := unitScale(base, uint8(exp))
		if err != nil {
			return 0, err
		}
		if scale*poolEqRaw >= float64(small) {
			break
		}
		if exp == math.MaxUint8 {
			return 0, fmt.Errorf("%w: resource_unit_exponent exceeds 8 bits", model.ErrOverflow)
		}
		exp++
	}
	return uint8(exp), nil
}

// unitScale returns base^exp, computed exactly. The scale must fit 64 bits.
func unitScale(base, exp uint8) (float64, error) {
	scale := gmath.BigPow(int64(base), int64(exp))
	if !scale.IsUint64() {
		return 0, fmt.Errorf("%w: resource unit %d^%d exceeds 64 bits", model.ErrOverflow, base, exp)
	}
	return float64(scale.Uint64()), nil
}
