package model

// DerivedParameters is the output record for one resource type. Field order is
// the serialized key order.
type DerivedParameters struct {
	TimeUnit                 string      `json:"time_unit"`
	CompoundPerSec           uint64      `json:"compound_per_sec"`
	CompoundPerSecDenomShift uint8       `json:"compound_per_sec_denom_shift"`
	ResourceUnitBase         uint8       `json:"resource_unit_base"`
	ResourceUnitExponent     uint8       `json:"resource_unit_exponent"`
	BudgetPerSec             int64       `json:"budget_per_sec"`
	BudgetPerTimeUnit        int64       `json:"budget_per_time_unit"`
	PoolEq                   float64     `json:"pool_eq"`
	P0                       float64     `json:"p_0"`
	PBB                      float64     `json:"p_bb"`
	D                        float64     `json:"D"`
	B                        float64     `json:"B"`
	A                        float64     `json:"A"`
	PMin                     float64     `json:"p_min"`
	CurveParams              CurveParams `json:"curve_params"`
	DecayParams              DecayParams `json:"decay_params"`
}

// CurveParams are the quantized coefficients of price(pool) = A/(pool+B) - D,
// with A and D scaled by 2^Shift. Coefficients are encoded as decimal strings
// so 64-bit values survive consumers with float64 numbers.
type CurveParams struct {
	CoeffA uint64 `json:"coeff_a,string"`
	CoeffB uint64 `json:"coeff_b,string"`
	CoeffD int64  `json:"coeff_d,string"`
	Shift  uint8  `json:"shift"`
}

// DecayParams is the pool decay over one output time unit, as a numerator over
// 2^DecayPerTimeUnitDenomShift.
type DecayParams struct {
	DecayPerTimeUnit           uint32 `json:"decay_per_time_unit"`
	DecayPerTimeUnitDenomShift uint8  `json:"decay_per_time_unit_denom_shift"`
}
