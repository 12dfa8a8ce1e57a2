// Package verify re-checks derived curve parameters against the invariants the
// derivation promises, including an integer evaluation of the quantized curve.
package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"rcparams/internal/model"
)

// sampleCount is the resource count charged when evaluating the quantized
// curve; large enough that integer truncation stays below the tolerance.
const sampleCount = uint64(1) << 32

// Tolerance is the relative error allowed between the quantized curve and the
// real-valued anchor prices.
const Tolerance = 1e-6

// Check returns every violated invariant of p joined into one error, or nil.
func Check(p model.DerivedParameters) error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p.CompoundPerSecDenomShift == 0 || p.CompoundPerSecDenomShift > 63 {
		add("compound_per_sec_denom_shift %d out of range", p.CompoundPerSecDenomShift)
	} else if p.CompoundPerSec == 0 || p.CompoundPerSec >= uint64(1)<<p.CompoundPerSecDenomShift {
		add("compound_per_sec %d not in (0, 2^%d)", p.CompoundPerSec, p.CompoundPerSecDenomShift)
	}

	if !(p.A >= 1) || !(p.B >= 1) {
		add("A=%g B=%g must both be at least 1", p.A, p.B)
		return errors.Join(errs...)
	}

	cp := p.CurveParams
	limit := math.Ldexp(1, 64)
	scaledA := math.Ldexp(p.A, int(cp.Shift))
	if scaledA >= limit {
		add("A * 2^%d overflows 64 bits", cp.Shift)
	}
	if math.Ldexp(p.A, int(cp.Shift)+1) < limit {
		add("shift %d is not maximal for A=%g", cp.Shift, p.A)
	}
	if float64(cp.CoeffA) < scaledA-1 {
		add("coeff_a %d below A * 2^shift = %.0f", cp.CoeffA, scaledA)
	}
	if math.Abs(float64(cp.CoeffB)-p.B) > 0.5 {
		add("coeff_b %d does not round B=%g", cp.CoeffB, p.B)
	}

	if got, ok := QuantizedPrice(cp, 0); !ok || !within(got, p.P0) {
		add("quantized price at empty pool %g, want p_0 %g", got, p.P0)
	}
	if p.PoolEq >= 0 && p.PoolEq < math.MaxInt64 {
		pool := int64(math.Round(p.PoolEq))
		if got, ok := QuantizedPrice(cp, pool); !ok || !within(got, p.PMin) {
			add("quantized price at pool_eq %g, want p_min %g", got, p.PMin)
		}
	} else {
		add("pool_eq %g out of range", p.PoolEq)
	}

	dp := p.DecayParams
	cs, ds := p.CompoundPerSecDenomShift, dp.DecayPerTimeUnitDenomShift
	switch {
	case ds == 0 || ds > cs:
		add("decay denom shift %d not in [1, compound shift %d]", ds, cs)
	case cs > 63:
	default:
		// Compare both rates over 2^cs.
		decay := new(uint256.Int).Lsh(uint256.NewInt(uint64(dp.DecayPerTimeUnit)), uint(cs-ds))
		compound := uint256.NewInt(p.CompoundPerSec)
		if decay.Lt(compound) {
			add("decay_per_time_unit %d/2^%d below compound_per_sec %d/2^%d", dp.DecayPerTimeUnit, ds, p.CompoundPerSec, cs)
		}
		if p.TimeUnit == model.TimeUnitSeconds && !decay.Eq(compound) {
			add("decay_per_time_unit %d/2^%d differs from compound_per_sec %d/2^%d for a seconds time unit", dp.DecayPerTimeUnit, ds, p.CompoundPerSec, cs)
		}
	}

	return errors.Join(errs...)
}

// QuantizedPrice evaluates the integer curve for sampleCount resources at the
// given pool level and returns the per-resource price. A negative pool prices
// as an empty one. ok is false when the intermediate values overflow.
func QuantizedPrice(cp model.CurveParams, pool int64) (float64, bool) {
	if pool < 0 {
		pool = 0
	}
	count := uint256.NewInt(sampleCount)

	num := new(uint256.Int).Mul(count, uint256.NewInt(cp.CoeffA))
	denom := new(uint256.Int).AddUint64(uint256.NewInt(cp.CoeffB), uint64(pool))
	if denom.IsZero() {
		return 0, false
	}
	quot := new(uint256.Int).Div(num, denom)

	discount := new(uint256.Int).Mul(count, uint256.NewInt(absInt64(cp.CoeffD)))
	var cost *uint256.Int
	if cp.CoeffD < 0 {
		cost = new(uint256.Int).Add(quot, discount)
	} else {
		if !quot.Gt(discount) {
			return 0, true
		}
		cost = new(uint256.Int).Sub(quot, discount)
	}
	cost.Rsh(cost, uint(cp.Shift))

	if !cost.IsUint64() {
		return 0, false
	}
	return float64(cost.Uint64()) / float64(sampleCount), true
}

func absInt64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func within(got, want float64) bool {
	return math.Abs(got-want) <= Tolerance*math.Abs(want)+2/float64(sampleCount)
}
