package derive

import (
	"fmt"
	"math"
	"time"

	"rcparams/internal/model"
)

// Globals are the cross-resource normalization constants shared by every
// derivation of a batch.
type Globals struct {
	// GlobalRegen is the capacity regenerated per second across all accounts.
	GlobalRegen float64
	// RegenWindow is the time for an account's full capacity to regenerate.
	RegenWindow time.Duration
}

// DefaultGlobals returns 400 billion per second over a 15 day window.
func DefaultGlobals() Globals {
	return Globals{
		GlobalRegen: 400e9,
		RegenWindow: 15 * 24 * time.Hour,
	}
}

// Validate checks that both constants are positive.
func (g Globals) Validate() error {
	if !(g.GlobalRegen > 0) || math.IsInf(g.GlobalRegen, 0) {
		return fmt.Errorf("%w: global regen must be a positive number, got %v", model.ErrMalformedInput, g.GlobalRegen)
	}
	if g.RegenWindow <= 0 {
		return fmt.Errorf("%w: regen window must be positive, got %s", model.ErrInvalidDuration, g.RegenWindow)
	}
	return nil
}

// Engine derives curve parameters. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	globals Globals
}

// NewEngine builds an Engine with validated globals.
func NewEngine(globals Globals) (*Engine, error) {
	if err := globals.Validate(); err != nil {
		return nil, err
	}
	return &Engine{globals: globals}, nil
}

// Globals returns the engine constants.
func (e *Engine) Globals() Globals {
	return e.globals
}

// Derive converts one resource spec into its derived parameters.
func (e *Engine) Derive(spec model.ResourceSpec) (model.DerivedParameters, error) {
	if err := spec.Validate(); err != nil {
		return model.DerivedParameters{}, err
	}

	halfLife, err := positiveSeconds("half_life", spec.HalfLife)
	if err != nil {
		return model.DerivedParameters{}, err
	}
	budgetTime, err := positiveSeconds("budget_time", spec.BudgetTime)
	if err != nil {
		return model.DerivedParameters{}, err
	}
	drainTime, err := positiveSeconds("drain_time", spec.DrainTime)
	if err != nil {
		return model.DerivedParameters{}, err
	}
	steps, err := timeUnitSteps(spec)
	if err != nil {
		return model.DerivedParameters{}, err
	}

	// Decay rate.
	shift := spec.CompoundPerSecondDenomShift
	x := decayFraction(halfLife)
	compoundPerSec, err := quantizeDecay(x, shift)
	if err != nil {
		return model.DerivedParameters{}, err
	}

	// Unit scaling.
	budgetPerSecRaw := spec.Budget / budgetTime
	var exp uint8
	if spec.ResourceUnitExponent != nil {
		exp = *spec.ResourceUnitExponent
	} else {
		exp, err = unitExponent(budgetPerSecRaw/x, spec.SmallStockpileSize, spec.ResourceUnitBase)
		if err != nil {
			return model.DerivedParameters{}, err
		}
	}
	scale, err := unitScale(spec.ResourceUnitBase, exp)
	if err != nil {
		return model.DerivedParameters{}, err
	}

	// Scaled budget and equilibrium. Prices are per scaled unit.
	budgetPerSec := budgetPerSecRaw * scale
	pMin := spec.PMin / scale
	poolEq := budgetPerSec / x

	budgetPerSecOut, err := roundInt64("budget_per_sec", budgetPerSec)
	if err != nil {
		return model.DerivedParameters{}, err
	}
	budgetPerTimeUnitOut, err := roundInt64("budget_per_time_unit", budgetPerSec*float64(steps))
	if err != nil {
		return model.DerivedParameters{}, err
	}

	// Anchor prices.
	regenWindow := e.globals.RegenWindow.Seconds()
	pBB := e.globals.GlobalRegen / (budgetPerSec * regenWindow)
	p0 := pBB * (1 + regenWindow/drainTime)

	curve, err := shapeCurve(poolEq, spec.InelasticityThreshold(), p0, pMin)
	if err != nil {
		return model.DerivedParameters{}, err
	}
	curveParams, err := quantizeCurve(curve)
	if err != nil {
		return model.DerivedParameters{}, err
	}

	decay, decayShift, err := compoundDecay(compoundPerSec, shift, steps)
	if err != nil {
		return model.DerivedParameters{}, err
	}

	timeUnit := spec.TimeUnit
	if timeUnit == "" {
		timeUnit = model.TimeUnitSeconds
	}

	return model.DerivedParameters{
		TimeUnit:                 timeUnit,
		CompoundPerSec:           compoundPerSec,
		CompoundPerSecDenomShift: shift,
		ResourceUnitBase:         spec.ResourceUnitBase,
		ResourceUnitExponent:     exp,
		BudgetPerSec:             budgetPerSecOut,
		BudgetPerTimeUnit:        budgetPerTimeUnitOut,
		PoolEq:                   poolEq,
		P0:                       p0,
		PBB:                      pBB,
		D:                        curve.D,
		B:                        curve.B,
		A:                        curve.A,
		PMin:                     curve.Price(poolEq),
		CurveParams:              curveParams,
		DecayParams: model.DecayParams{
			DecayPerTimeUnit:           uint32(decay),
			DecayPerTimeUnitDenomShift: decayShift,
		},
	}, nil
}

func positiveSeconds(name string, d model.Duration) (float64, error) {
	secs := d.Seconds()
	if !(secs > 0) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("%w: %s must be positive, got %v seconds", model.ErrInvalidDuration, name, secs)
	}
	return secs, nil
}

// timeUnitSteps returns the whole number of seconds in one output time unit.
func timeUnitSteps(spec model.ResourceSpec) (uint64, error) {
	secs := spec.TimeUnitSeconds()
	if !(secs >= 1) || secs != math.Trunc(secs) || secs > math.MaxUint32 {
		return 0, fmt.Errorf("%w: block_interval must be a whole number of seconds, got %v", model.ErrInvalidDuration, secs)
	}
	return uint64(secs), nil
}

func roundInt64(name string, v float64) (int64, error) {
	n, err := roundHalfUp(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: %s %s exceeds signed 64 bits", model.ErrOverflow, name, n)
	}
	return n.Int64(), nil
}
