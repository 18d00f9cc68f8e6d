package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raoulx24/drive-cleaner/internal/config"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/walker"
	"github.com/raoulx24/drive-cleaner/internal/worker"
)

var (
	configPath string
	basePath   string
	months     int
	strict     bool
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drive-cleaner",
	Short: "drive-cleaner - tag-driven retention for build and release drives",
	Long: `drive-cleaner walks a tree of build or release directories, tags every
directory that carries a walking.yml marker and, as tags age, compresses
and finally deletes their contents.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath+", optional)")
	pf.StringVarP(&basePath, "base-path", "p", "", "directory tree to scan")
	pf.IntVarP(&months, "time", "t", 0, "retention window in months")
	pf.BoolVar(&strict, "strict", false, "fail when the base path does not exist")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig reads the config file and lets explicitly set flags win over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, optional := configPath, false
	if path == "" {
		path, optional = config.DefaultPath, true
	}

	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-path") {
		cfg.Scan.BasePath = basePath
	}
	if flags.Changed("time") {
		cfg.Retention.Months = months
	}
	if flags.Changed("strict") {
		cfg.Retention.StrictBasePath = strict
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.SlogLogger, error) {
	log, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func settingsFrom(cfg *config.Config) worker.Settings {
	return worker.Settings{
		BasePath:        cfg.Scan.BasePath,
		Months:          cfg.Retention.Months,
		OnMalformed:     walker.Policy(cfg.Retention.OnMalformedTag),
		StrictBasePath:  cfg.Retention.StrictBasePath,
		MetricsTextfile: cfg.Metrics.Textfile,
		LockPath:        cfg.Lock.Path,
	}
}
