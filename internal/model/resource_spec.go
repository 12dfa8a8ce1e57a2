package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	gmath "github.com/ethereum/go-ethereum/common/math"
)

const (
	TimeUnitSeconds = "seconds"

	DefaultBlockInterval               = 3
	DefaultInelasticityThresholdNum    = 1.0
	DefaultInelasticityThresholdDenom  = 128.0
	DefaultPMin                        = 50.0
	DefaultResourceUnitBase            = 10
	DefaultSmallStockpileSize          = uint64(1) << 32
	DefaultCompoundPerSecondDenomShift = 38
)

// ResourceSpec holds the economic inputs for one resource type.
type ResourceSpec struct {
	TimeUnit      string
	BlockInterval float64

	BudgetTime Duration
	Budget     float64
	HalfLife   Duration
	DrainTime  Duration

	InelasticityThresholdNum   float64
	InelasticityThresholdDenom float64
	PMin                       float64

	ResourceUnitBase uint8
	// ResourceUnitExponent is derived from SmallStockpileSize when nil.
	ResourceUnitExponent *uint8
	SmallStockpileSize   uint64

	CompoundPerSecondDenomShift uint8
}

// NewResourceSpec returns a spec with the required fields set and every
// optional field at its default.
func NewResourceSpec(budgetTime Duration, budget float64, halfLife, drainTime Duration) ResourceSpec {
	return ResourceSpec{
		TimeUnit:                    TimeUnitSeconds,
		BlockInterval:               DefaultBlockInterval,
		BudgetTime:                  budgetTime,
		Budget:                      budget,
		HalfLife:                    halfLife,
		DrainTime:                   drainTime,
		InelasticityThresholdNum:    DefaultInelasticityThresholdNum,
		InelasticityThresholdDenom:  DefaultInelasticityThresholdDenom,
		PMin:                        DefaultPMin,
		ResourceUnitBase:            DefaultResourceUnitBase,
		SmallStockpileSize:          DefaultSmallStockpileSize,
		CompoundPerSecondDenomShift: DefaultCompoundPerSecondDenomShift,
	}
}

// InelasticityThreshold returns num/denom.
func (s ResourceSpec) InelasticityThreshold() float64 {
	return s.InelasticityThresholdNum / s.InelasticityThresholdDenom
}

// TimeUnitSeconds returns the number of seconds in one output time unit.
func (s ResourceSpec) TimeUnitSeconds() float64 {
	if s.TimeUnit == "" || s.TimeUnit == TimeUnitSeconds {
		return 1
	}
	return s.BlockInterval
}

// Validate checks the structural constraints of the record. Duration signs are
// left to the derivation, which reports them as ErrInvalidDuration.
func (s ResourceSpec) Validate() error {
	if !finitePositive(s.Budget) {
		return fmt.Errorf("%w: budget must be a positive number, got %v", ErrMalformedInput, s.Budget)
	}
	if !finitePositive(s.InelasticityThresholdDenom) {
		return fmt.Errorf("%w: inelasticity_threshold_denom must be positive, got %v", ErrMalformedInput, s.InelasticityThresholdDenom)
	}
	if math.IsNaN(s.InelasticityThresholdNum) || math.IsInf(s.InelasticityThresholdNum, 0) {
		return fmt.Errorf("%w: inelasticity_threshold_num is not finite", ErrMalformedInput)
	}
	if math.IsNaN(s.PMin) || math.IsInf(s.PMin, 0) {
		return fmt.Errorf("%w: p_min is not finite", ErrMalformedInput)
	}
	if s.ResourceUnitBase < 2 {
		return fmt.Errorf("%w: resource_unit_base must be at least 2, got %d", ErrMalformedInput, s.ResourceUnitBase)
	}
	if s.CompoundPerSecondDenomShift == 0 || s.CompoundPerSecondDenomShift > 63 {
		return fmt.Errorf("%w: compound_per_second_denom_shift must be in [1, 63], got %d", ErrMalformedInput, s.CompoundPerSecondDenomShift)
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

type resourceSpecJSON struct {
	TimeUnit                    *string               `json:"time_unit"`
	BlockInterval               *float64              `json:"block_interval"`
	BudgetTime                  *Duration             `json:"budget_time"`
	Budget                      *float64              `json:"budget"`
	HalfLife                    *Duration             `json:"half_life"`
	DrainTime                   *Duration             `json:"drain_time"`
	InelasticityThresholdNum    *float64              `json:"inelasticity_threshold_num"`
	InelasticityThresholdDenom  *float64              `json:"inelasticity_threshold_denom"`
	PMin                        *float64              `json:"p_min"`
	ResourceUnitBase            *uint8                `json:"resource_unit_base"`
	ResourceUnitExponent        *uint8                `json:"resource_unit_exponent"`
	UnitBits                    *uint8                `json:"unit_bits"`
	SmallStockpileSize          *gmath.HexOrDecimal64 `json:"small_stockpile_size"`
	CompoundPerSecondDenomShift *uint8                `json:"compound_per_second_denom_shift"`
}

// UnmarshalJSON decodes a spec and fills unset optional fields with defaults.
// The legacy unit_bits key selects a power-of-two unit.
func (s *ResourceSpec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw resourceSpecJSON
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: resource spec: %v", ErrMalformedInput, err)
	}

	switch {
	case raw.BudgetTime == nil:
		return fmt.Errorf("%w: budget_time is required", ErrMalformedInput)
	case raw.Budget == nil:
		return fmt.Errorf("%w: budget is required", ErrMalformedInput)
	case raw.HalfLife == nil:
		return fmt.Errorf("%w: half_life is required", ErrMalformedInput)
	case raw.DrainTime == nil:
		return fmt.Errorf("%w: drain_time is required", ErrMalformedInput)
	}

	spec := NewResourceSpec(*raw.BudgetTime, *raw.Budget, *raw.HalfLife, *raw.DrainTime)
	if raw.TimeUnit != nil {
		spec.TimeUnit = *raw.TimeUnit
	}
	if raw.BlockInterval != nil {
		spec.BlockInterval = *raw.BlockInterval
	}
	if raw.InelasticityThresholdNum != nil {
		spec.InelasticityThresholdNum = *raw.InelasticityThresholdNum
	}
	if raw.InelasticityThresholdDenom != nil {
		spec.InelasticityThresholdDenom = *raw.InelasticityThresholdDenom
	}
	if raw.PMin != nil {
		spec.PMin = *raw.PMin
	}
	if raw.SmallStockpileSize != nil {
		spec.SmallStockpileSize = uint64(*raw.SmallStockpileSize)
	}
	if raw.CompoundPerSecondDenomShift != nil {
		spec.CompoundPerSecondDenomShift = *raw.CompoundPerSecondDenomShift
	}

	if raw.UnitBits != nil {
		if raw.ResourceUnitBase != nil || raw.ResourceUnitExponent != nil {
			return fmt.Errorf("%w: unit_bits cannot be combined with resource_unit_base or resource_unit_exponent", ErrMalformedInput)
		}
		bits := *raw.UnitBits
		spec.ResourceUnitBase = 2
		spec.ResourceUnitExponent = &bits
	} else {
		if raw.ResourceUnitBase != nil {
			spec.ResourceUnitBase = *raw.ResourceUnitBase
		}
		if raw.ResourceUnitExponent != nil {
			exp := *raw.ResourceUnitExponent
			spec.ResourceUnitExponent = &exp
		}
	}

	*s = spec
	return nil
}
