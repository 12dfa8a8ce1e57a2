package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rcparams/internal/derive"
	"rcparams/internal/model"
	"rcparams/internal/storage"
)

// Config holds runtime settings for a batch run.
type Config struct {
	Workers int
	Indent  bool
}

// Runner maps the derivation engine over a batch input and hands the encoded
// output to a sink.
type Runner struct {
	cfg    Config
	engine *derive.Engine
	sink   storage.Sink
	stdin  io.Reader
	logger *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, engine *derive.Engine, sink storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		cfg:    cfg,
		engine: engine,
		sink:   sink,
		stdin:  os.Stdin,
		logger: logger,
	}
}

// WithStdin replaces the reader used for the "-" input path.
func (r *Runner) WithStdin(stdin io.Reader) *Runner {
	r.stdin = stdin
	return r
}

// Run reads the input, derives every entry and writes the output. A failing
// entry fails the whole run and nothing is written.
func (r *Runner) Run(ctx context.Context, input string) error {
	if r.engine == nil {
		return fmt.Errorf("engine is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}

	start := time.Now()
	specs, err := ReadSpecs(input, r.stdin)
	if err != nil {
		return err
	}

	params, err := r.Derive(ctx, specs)
	if err != nil {
		return err
	}

	data, err := Encode(params, r.cfg.Indent)
	if err != nil {
		return err
	}

	written, err := r.sink.Put(data)
	if err != nil {
		return fmt.Errorf("store output: %w", err)
	}

	globals := r.engine.Globals()
	r.logger.Info("batch complete",
		zap.String("input", input),
		zap.Float64("global_regen", globals.GlobalRegen),
		zap.Duration("regen_window", globals.RegenWindow),
		zap.Int("resources", len(params)),
		zap.Bool("written", written),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Derive derives every entry with at most cfg.Workers goroutines. Outputs keep
// the input order; on failure the error of the first failing entry in input
// order is returned.
func (r *Runner) Derive(ctx context.Context, specs []model.SpecEntry) ([]model.ParamsEntry, error) {
	out := make([]model.ParamsEntry, len(specs))
	errs := make([]error, len(specs))

	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, entry := range specs {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}

			params, err := r.engine.Derive(entry.Spec)
			if err != nil {
				r.logger.Warn("derive failed", zap.String("resource", entry.Name), zap.Error(err))
				errs[i] = fmt.Errorf("derive %s: %w", entry.Name, err)
				return errs[i]
			}

			r.logger.Debug("derived",
				zap.String("resource", entry.Name),
				zap.Uint64("compound_per_sec", params.CompoundPerSec),
				zap.Uint8("resource_unit_exponent", params.ResourceUnitExponent),
				zap.Float64("pool_eq", params.PoolEq),
				zap.Float64("p_0", params.P0),
				zap.Uint8("shift", params.CurveParams.Shift),
			)
			out[i] = model.ParamsEntry{Name: entry.Name, Params: params}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode serializes a batch output with compact separators, optionally
// indenting one space per level.
func Encode(entries []model.ParamsEntry, indent bool) ([]byte, error) {
	if entries == nil {
		entries = []model.ParamsEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}
	if !indent {
		return data, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", " "); err != nil {
		return nil, fmt.Errorf("indent output: %w", err)
	}
	return buf.Bytes(), nil
}
