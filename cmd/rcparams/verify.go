package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rcparams/internal/batch"
	"rcparams/internal/config"
	"rcparams/internal/verify"
)

func runVerify(cmd *cobra.Command, _ []string) error {
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

	failed := 0
	for _, entry := range entries {
		if err := verify.Check(entry.Params); err != nil {
			failed++
			logger.Error("check failed", zap.String("resource", entry.Name), zap.Error(err))
			continue
		}
		logger.Debug("check passed", zap.String("resource", entry.Name))
	}

	logger.Info("verify complete",
		zap.Int("entries", len(entries)),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed verification", failed, len(entries))
	}
	return nil
}
