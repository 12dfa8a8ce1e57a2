package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rcparams/internal/batch"
	"rcparams/internal/config"
	"rcparams/internal/derive"
	"rcparams/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "rcparams",
		Short:        "Resource price-curve parameter generator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive curve parameters for a batch of resource specs",
		RunE:  runGenerate,
	}

	generateCmd.Flags().String("in", "-", "input specs (JSON or YAML), - for stdin")
	generateCmd.Flags().String("out", "-", "output file, - for stdout")
	generateCmd.Flags().Int("workers", 0, "parallel derivations, 0 means GOMAXPROCS")
	generateCmd.Flags().Bool("indent", false, "indent output JSON")
	generateCmd.Flags().Bool("watch", false, "regenerate whenever the input file changes")
	generateCmd.Flags().Float64("global-regen", derive.DefaultGlobals().GlobalRegen, "global regeneration per second")
	generateCmd.Flags().String("regen-window", "15d", "regeneration window (seconds, Nd or Go duration)")
	generateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(generateCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check derived parameters against the curve invariants",
		RunE:  runVerify,
	}

	verifyCmd.Flags().String("in", "-", "derived parameters JSON, - for stdin")
	verifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(verifyCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a human-readable summary of derived parameters",
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("in", "-", "derived parameters JSON, - for stdin")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(inspectCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, err := derive.NewEngine(derive.Globals{
		GlobalRegen: cfg.GlobalRegen,
		RegenWindow: cfg.RegenWindow,
	})
	if err != nil {
		return fmt.Errorf("globals: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := storage.NewSink(cfg.Out, cmd.OutOrStdout())
	runner := batch.NewRunner(batch.Config{
		Workers: cfg.Workers,
		Indent:  cfg.Indent,
	}, engine, sink, logger).WithStdin(cmd.InOrStdin())

	logger.Info("generate start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("workers", cfg.Workers),
		zap.Float64("global_regen", cfg.GlobalRegen),
		zap.Duration("regen_window", cfg.RegenWindow),
		zap.Bool("watch", cfg.Watch),
	)

	if cfg.Watch {
		return runner.Watch(ctx, cfg.In)
	}
	return runner.Run(ctx, cfg.In)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
