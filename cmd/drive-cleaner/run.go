package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/drive-cleaner/internal/worker"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cleanup pass and exit",
	Long: `Run one cleanup pass over the base path: tag new directories, compress
those older than half the window and delete those older than the full window.
A missing base path is logged and exits 0 unless --strict is set.`,
	Args: cobra.NoArgs,
	RunE: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("starting drive-cleaner",
		"version", Version,
		"config", configPath,
		"base", cfg.Scan.BasePath,
		"months", cfg.Retention.Months,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.New(settingsFrom(cfg), log, nil, nil)
	if _, err := w.Run(ctx); err != nil {
		log.Error("pass failed", "error", err)
		return err
	}
	return nil
}
