package verify

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"rcparams/internal/model"
)

// Summary is the human-facing view of one derived record.
type Summary struct {
	Name       string
	TimeUnit   string
	HalfLife   time.Duration
	UnitScale  string
	BudgetRate string
	PoolEq     string
	P0         string
	PMin       string
	Shift      uint8
	Status     string
}

// Summarize builds the report row for one entry. The half-life is recovered
// from the quantized per-second decay, so it reflects what consumers will see.
func Summarize(e model.ParamsEntry) Summary {
	p := e.Params
	status := "ok"
	if err := Check(p); err != nil {
		status = "FAIL"
	}

	return Summary{
		Name:       e.Name,
		TimeUnit:   p.TimeUnit,
		HalfLife:   EffectiveHalfLife(p.CompoundPerSec, p.CompoundPerSecDenomShift),
		UnitScale:  fmt.Sprintf("%d^%d", p.ResourceUnitBase, p.ResourceUnitExponent),
		BudgetRate: humanize.Comma(p.BudgetPerSec) + "/s",
		PoolEq:     humanize.SIWithDigits(p.PoolEq, 3, ""),
		P0:         humanize.FtoaWithDigits(p.P0, 4),
		PMin:       humanize.FtoaWithDigits(p.PMin, 4),
		Shift:      p.CurveParams.Shift,
		Status:     status,
	}
}

// EffectiveHalfLife inverts the per-second decay numerator back to a
// half-life, rounded to the second. Zero means the decay is out of range.
func EffectiveHalfLife(compound uint64, shift uint8) time.Duration {
	if compound == 0 || shift == 0 || shift > 63 || compound >= uint64(1)<<shift {
		return 0
	}
	x := math.Ldexp(float64(compound), -int(shift))
	secs := -math.Ln2 / math.Log1p(-x)
	if math.IsInf(secs, 0) || math.IsNaN(secs) || secs > float64(math.MaxInt64/int64(time.Second)) {
		return 0
	}
	return time.Duration(secs * float64(time.Second)).Round(time.Second)
}

// WriteReport renders one tab-aligned row per entry.
func WriteReport(w io.Writer, entries []model.ParamsEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUNIT\tHALF-LIFE\tSCALE\tBUDGET\tPOOL_EQ\tP_0\tP_MIN\tSHIFT\tCHECK")
	for _, e := range entries {
		s := Summarize(e)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Name, s.TimeUnit, s.HalfLife, s.UnitScale, s.BudgetRate,
			s.PoolEq, s.P0, s.PMin, s.Shift, s.Status)
	}
	return tw.Flush()
}
