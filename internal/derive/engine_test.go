package derive

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcparams/internal/model"
)

const day = 24 * 60 * 60

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultGlobals())
	require.NoError(t, err)
	return engine
}

func referenceSpec() model.ResourceSpec {
	return model.NewResourceSpec(model.Seconds(30*day), 5e9, model.Seconds(15*day), model.Seconds(3600))
}

func TestDeriveReferenceExample(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Derive(referenceSpec())
	require.NoError(t, err)

	assert.Equal(t, "seconds", got.TimeUnit)
	assert.Equal(t, uint64(147014), got.CompoundPerSec)
	assert.Equal(t, uint8(38), got.CompoundPerSecDenomShift)
	assert.Equal(t, uint8(10), got.ResourceUnitBase)
	assert.Equal(t, uint8(1), got.ResourceUnitExponent)
	assert.Equal(t, int64(19290), got.BudgetPerSec)
	assert.Equal(t, int64(19290), got.BudgetPerTimeUnit)

	assert.InEpsilon(t, 36067385667.286674, got.PoolEq, 1e-6)
	assert.InEpsilon(t, 5776.0, got.P0, 1e-6)
	assert.InEpsilon(t, 16.0, got.PBB, 1e-6)
	assert.InEpsilon(t, 40.0859375, got.D, 1e-6)
	assert.InEpsilon(t, 281776450.52567714, got.B, 1e-6)
	assert.InEpsilon(t, 1638836051421.0554, got.A, 1e-6)
	assert.InEpsilon(t, 5.0, got.PMin, 1e-6)

	assert.Equal(t, uint8(23), got.CurveParams.Shift)
	assert.Equal(t, uint64(13747553211639076864), got.CurveParams.CoeffA)
	assert.Equal(t, uint64(281776451), got.CurveParams.CoeffB)
	assert.Equal(t, int64(336265216), got.CurveParams.CoeffD)

	assert.Equal(t, uint32(147014), got.DecayParams.DecayPerTimeUnit)
	assert.Equal(t, uint8(38), got.DecayParams.DecayPerTimeUnitDenomShift)
}

func TestDeriveIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)

	first, err := engine.Derive(referenceSpec())
	require.NoError(t, err)
	second, err := engine.Derive(referenceSpec())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestDeriveBlockTimeUnit(t *testing.T) {
	engine := newTestEngine(t)

	spec := referenceSpec()
	spec.TimeUnit = "blocks"

	got, err := engine.Derive(spec)
	require.NoError(t, err)

	assert.Equal(t, "blocks", got.TimeUnit)
	assert.Equal(t, uint64(147014), got.CompoundPerSec)
	assert.Equal(t, int64(57870), got.BudgetPerTimeUnit)
	assert.Equal(t, uint32(441042), got.DecayParams.DecayPerTimeUnit)
}

func TestDeriveCurveAnchors(t *testing.T) {
	engine := newTestEngine(t)

	specs := []model.ResourceSpec{
		referenceSpec(),
		model.NewResourceSpec(model.Seconds(day), 1e6, model.Seconds(3600), model.Seconds(600)),
		model.NewResourceSpec(model.Seconds(7*day), 2.5e10, model.Seconds(5*day), model.Seconds(2*3600)),
	}

	for _, spec := range specs {
		got, err := engine.Derive(spec)
		require.NoError(t, err)

		curve := Curve{A: got.A, B: got.B, D: got.D}
		assert.InEpsilon(t, got.P0, curve.Price(0), 1e-9)
		assert.InEpsilon(t, got.PMin, curve.Price(got.PoolEq), 1e-9)

		scale := math.Pow(float64(got.ResourceUnitBase), float64(got.ResourceUnitExponent))
		assert.InEpsilon(t, spec.PMin/scale, got.PMin, 1e-6)
		assert.GreaterOrEqual(t, got.A, 1.0)
		assert.GreaterOrEqual(t, got.B, 1.0)
	}
}

func TestDeriveQuantizedCoefficients(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Derive(referenceSpec())
	require.NoError(t, err)

	cp := got.CurveParams
	scaledA := math.Ldexp(got.A, int(cp.Shift))
	assert.Less(t, scaledA, math.Ldexp(1, 64))
	assert.GreaterOrEqual(t, math.Ldexp(got.A, int(cp.Shift)+1), math.Ldexp(1, 64))
	assert.GreaterOrEqual(t, float64(cp.CoeffA), scaledA-1)
	assert.InDelta(t, math.Round(got.B), float64(cp.CoeffB), 0)
}

func TestDeriveUnitExponentIsMinimal(t *testing.T) {
	engine := newTestEngine(t)

	budgets := []float64{1, 1e3, 5e9, 4.2e11}
	for _, budget := range budgets {
		spec := model.NewResourceSpec(model.Seconds(30*day), budget, model.Seconds(15*day), model.Seconds(3600))
		got, err := engine.Derive(spec)
		require.NoError(t, err)

		x := decayFraction(15 * day)
		poolEqRaw := budget / (30 * day) / x
		small := float64(spec.SmallStockpileSize)
		base := float64(got.ResourceUnitBase)
		e := float64(got.ResourceUnitExponent)

		assert.GreaterOrEqual(t, math.Pow(base, e)*poolEqRaw, small, "budget %g", budget)
		if got.ResourceUnitExponent > 0 {
			assert.Less(t, math.Pow(base, e-1)*poolEqRaw, small, "budget %g", budget)
		}
	}
}

func TestDerivePowerOfTwoUnit(t *testing.T) {
	engine := newTestEngine(t)

	spec := referenceSpec()
	spec.ResourceUnitBase = 2
	auto, err := engine.Derive(spec)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), auto.ResourceUnitExponent)
	assert.Equal(t, uint8(23), auto.CurveParams.Shift)

	bits := uint8(1)
	spec.ResourceUnitExponent = &bits
	explicit, err := engine.Derive(spec)
	require.NoError(t, err)
	assert.Equal(t, auto, explicit)
}

func TestDeriveInvertedPriceFloor(t *testing.T) {
	engine := newTestEngine(t)

	spec := referenceSpec()
	exp := uint8(0)
	spec.ResourceUnitExponent = &exp

	params, err := engine.Derive(spec)
	require.NoError(t, err)

	spec.PMin = params.P0 * 1.5
	_, err = engine.Derive(spec)
	assert.ErrorIs(t, err, model.ErrInvalidCurveParameters)
}

func TestDeriveErrors(t *testing.T) {
	engine := newTestEngine(t)

	cases := map[string]struct {
		mutate func(*model.ResourceSpec)
		want   error
	}{
		"zero half_life":       {func(s *model.ResourceSpec) { s.HalfLife = model.Seconds(0) }, model.ErrInvalidDuration},
		"negative budget_time": {func(s *model.ResourceSpec) { s.BudgetTime = model.Seconds(-1) }, model.ErrInvalidDuration},
		"zero drain_time":      {func(s *model.ResourceSpec) { s.DrainTime = model.Seconds(0) }, model.ErrInvalidDuration},
		"fractional block":     {func(s *model.ResourceSpec) { s.TimeUnit = "blocks"; s.BlockInterval = 2.5 }, model.ErrInvalidDuration},
		"half_life too short":  {func(s *model.ResourceSpec) { s.HalfLife = model.Seconds(30) }, model.ErrOverflow},
		"decay underflow":      {func(s *model.ResourceSpec) { s.CompoundPerSecondDenomShift = 8 }, model.ErrOverflow},
		"unit too large":       {func(s *model.ResourceSpec) { e := uint8(30); s.ResourceUnitExponent = &e }, model.ErrOverflow},
		"zero budget":          {func(s *model.ResourceSpec) { s.Budget = 0 }, model.ErrMalformedInput},
		"base one":             {func(s *model.ResourceSpec) { s.ResourceUnitBase = 1 }, model.ErrMalformedInput},
		"zero threshold":       {func(s *model.ResourceSpec) { s.InelasticityThresholdNum = 0 }, model.ErrInvalidCurveParameters},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			spec := referenceSpec()
			tc.mutate(&spec)
			_, err := engine.Derive(spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestMinimumHalfLife(t *testing.T) {
	engine := newTestEngine(t)

	spec := referenceSpec()
	spec.HalfLife = model.Seconds(60)
	got, err := engine.Derive(spec)
	require.NoError(t, err)
	assert.Equal(t, uint64(3157242044), got.CompoundPerSec)
	assert.Equal(t, uint8(5), got.ResourceUnitExponent)
	assert.Equal(t, uint32(3157242044), got.DecayParams.DecayPerTimeUnit)
	assert.Equal(t, uint8(38), got.DecayParams.DecayPerTimeUnitDenomShift)
}

func TestMinimumHalfLifeWithBlocks(t *testing.T) {
	engine := newTestEngine(t)

	spec := referenceSpec()
	spec.HalfLife = model.Seconds(60)
	spec.TimeUnit = "blocks"
	got, err := engine.Derive(spec)
	require.NoError(t, err)

	assert.Equal(t, uint64(3157242044), got.CompoundPerSec)
	assert.Equal(t, uint8(38), got.CompoundPerSecDenomShift)
	assert.Equal(t, uint32(2340837652), got.DecayParams.DecayPerTimeUnit)
	assert.Equal(t, uint8(36), got.DecayParams.DecayPerTimeUnitDenomShift)
}

func TestNewEngineValidatesGlobals(t *testing.T) {
	_, err := NewEngine(Globals{GlobalRegen: 0, RegenWindow: time.Hour})
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = NewEngine(Globals{GlobalRegen: 1, RegenWindow: 0})
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
}

func TestGlobalsScalePrices(t *testing.T) {
	globals := DefaultGlobals()
	globals.GlobalRegen *= 2
	engine, err := NewEngine(globals)
	require.NoError(t, err)

	got, err := engine.Derive(referenceSpec())
	require.NoError(t, err)
	assert.InEpsilon(t, 32.0, got.PBB, 1e-6)
	assert.InEpsilon(t, 11552.0, got.P0, 1e-6)
}
