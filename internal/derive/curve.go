package derive

import (
	"fmt"
	"math"
	"math/big"

	"rcparams/internal/model"
)

// Curve is price(pool) = A/(pool+B) - D in real numbers.
type Curve struct {
	A float64
	B float64
	D float64
}

// Price evaluates the curve.
func (c Curve) Price(pool float64) float64 {
	return c.A/(pool+c.B) - c.D
}

// shapeCurve anchors the curve so that price(0) = p0 and price(poolEq) = pMin,
// with B the inelastic band threshold*poolEq.
func shapeCurve(poolEq, threshold, p0, pMin float64) (Curve, error) {
	b := threshold * poolEq
	d := (b/poolEq)*(p0-pMin) - pMin
	a := b * (p0 + d)

	if !(a >= 1) || !(b >= 1) {
		return Curve{}, fmt.Errorf("%w: A=%g B=%g must both be at least 1 (is p_min too large?)", model.ErrInvalidCurveParameters, a, b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsNaN(d) || math.IsInf(d, 0) {
		return Curve{}, fmt.Errorf("%w: curve coefficients are not finite", model.ErrOverflow)
	}
	return Curve{A: a, B: b, D: d}, nil
}

// curveShift returns the largest shift with a * 2^shift < 2^64. With
// a = frac * 2^exp and frac in [0.5, 1), that is 64 - exp.
func curveShift(a float64) (uint8, error) {
	_, exp := math.Frexp(a)
	shift := 64 - exp
	if shift < 0 || shift > math.MaxUint8 {
		return 0, fmt.Errorf("%w: curve shift %d for A=%g out of range", model.ErrOverflow, shift, a)
	}
	return uint8(shift), nil
}

// quantizeCurve scales A and D by the maximal shift and rounds every
// coefficient half-up.
func quantizeCurve(c Curve) (model.CurveParams, error) {
	shift, err := curveShift(c.A)
	if err != nil {
		return model.CurveParams{}, err
	}

	coeffA, err := roundHalfUp(math.Ldexp(c.A, int(shift)))
	if err != nil {
		return model.CurveParams{}, fmt.Errorf("coeff_a: %w", err)
	}
	if !coeffA.IsUint64() {
		return model.CurveParams{}, fmt.Errorf("%w: coeff_a %s exceeds 64 bits", model.ErrOverflow, coeffA)
	}

	coeffB, err := roundHalfUp(c.B)
	if err != nil {
		return model.CurveParams{}, fmt.Errorf("coeff_b: %w", err)
	}
	if !coeffB.IsUint64() {
		return model.CurveParams{}, fmt.Errorf("%w: coeff_b %s exceeds 64 bits", model.ErrOverflow, coeffB)
	}

	coeffD, err := roundHalfUp(math.Ldexp(c.D, int(shift)))
	if err != nil {
		return model.CurveParams{}, fmt.Errorf("coeff_d: %w", err)
	}
	if !coeffD.IsInt64() {
		return model.CurveParams{}, fmt.Errorf("%w: coeff_d %s exceeds signed 64 bits", model.ErrOverflow, coeffD)
	}

	return model.CurveParams{
		CoeffA: coeffA.Uint64(),
		CoeffB: coeffB.Uint64(),
		CoeffD: coeffD.Int64(),
		Shift:  shift,
	}, nil
}

// roundHalfUp returns floor(v + 1/2), evaluated exactly.
func roundHalfUp(v float64) (*big.Int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %v is not finite", model.ErrOverflow, v)
	}
	r := new(big.Rat).SetFloat64(v)
	r.Add(r, big.NewRat(1, 2))
	// Int.Div is Euclidean, so with a positive denominator it floors.
	return new(big.Int).Div(r.Num(), r.Denom()), nil
}
