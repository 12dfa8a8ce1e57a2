package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rcparams/internal/batch"
	"rcparams/internal/config"
	"rcparams/internal/verify"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	entries, err := batch.ReadParams(cfg.In, cmd.InOrStdin())
	if err != nil {
		return err
	}

	logger.Debug("inspect", zap.String("in", cfg.In), zap.Int("entries", len(entries)))
	return verify.WriteReport(cmd.OutOrStdout(), entries)
}
