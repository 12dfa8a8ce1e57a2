package derive

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"rcparams/internal/model"
)

// decayFraction returns x such that (1-x)^halfLife = 1/2. expm1 keeps the
// result accurate for long half-lives where 1 - 0.5^(1/H) cancels.
func decayFraction(halfLifeSec float64) float64 {
	return -math.Expm1(-math.Ln2 / halfLifeSec)
}

// quantizeDecay returns floor(x * 2^shift). The result must fit 32 bits, which
// at shift 38 holds for half-lives of 60 seconds or more.
func quantizeDecay(x float64, shift uint8) (uint64, error) {
	v := math.Floor(math.Ldexp(x, int(shift)))
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: compound_per_sec %.0f exceeds 32 bits at denom shift %d (half_life too short)", model.ErrOverflow, v, shift)
	}
	if v < 1 {
		return 0, fmt.Errorf("%w: compound_per_sec rounds to zero at denom shift %d (half_life too long)", model.ErrOverflow, shift)
	}
	return uint64(v), nil
}

// compoundDecay returns the decay over steps ticks of a per-tick decay rate,
// both as numerators over 2^shift:
//
//	2^shift - (2^shift - rate)^steps / 2^(shift*(steps-1))
//
// The power is taken by squaring, rounding each product half-up. When the
// result does not fit 32 bits it is rounded half-up to the largest smaller
// denominator shift that fits, which is returned alongside it.
func compoundDecay(rate uint64, shift uint8, steps uint64) (uint64, uint8, error) {
	one := new(uint256.Int).Lsh(uint256.NewInt(1), uint(shift))
	half := new(uint256.Int).Rsh(one, 1)

	keep := new(uint256.Int).Sub(one, uint256.NewInt(rate))
	result := one.Clone()
	for n := steps; n > 0; n >>= 1 {
		if n&1 == 1 {
			result = fixedMul(result, keep, half, shift)
		}
		keep = fixedMul(keep, keep, half, shift)
	}

	decay := new(uint256.Int).Sub(one, result)
	for drop := uint8(0); drop < shift; drop++ {
		v := shiftHalfUp(decay, drop)
		if v.IsUint64() && v.Uint64() <= math.MaxUint32 {
			return v.Uint64(), shift - drop, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: decay_per_time_unit %s exceeds 32 bits at every denom shift up to %d", model.ErrOverflow, decay.Dec(), shift)
}

// shiftHalfUp returns round(x / 2^n), halves rounded up.
func shiftHalfUp(x *uint256.Int, n uint8) *uint256.Int {
	z := x.Clone()
	if n == 0 {
		return z
	}
	z.Add(z, new(uint256.Int).Lsh(uint256.NewInt(1), uint(n-1)))
	return z.Rsh(z, uint(n))
}

func fixedMul(x, y, half *uint256.Int, shift uint8) *uint256.Int {
	z := new(uint256.Int).Mul(x, y)
	z.Add(z, half)
	return z.Rsh(z, uint(shift))
}
