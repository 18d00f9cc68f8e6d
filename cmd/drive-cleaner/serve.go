package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/raoulx24/drive-cleaner/internal/config"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/mailbox"
	"github.com/raoulx24/drive-cleaner/internal/watcher"
	"github.com/raoulx24/drive-cleaner/internal/worker"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run cleanup passes on a cron schedule",
	Long: `Stay in the foreground and run a pass every time schedule.cron fires.
Triggers that arrive while a pass is running collapse into one follow-up pass.
SIGHUP, or an edit of the config file, reloads the configuration.
SIGINT and SIGTERM cancel any running pass and exit.`,
	Args: cobra.NoArgs,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required for serve")
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mailbox for pass requests
	mb := mailbox.New[worker.Job]()

	w := worker.New(settingsFrom(cfg), log, mb, nil)

	sched := newScheduler(mb, log)
	if err := sched.Schedule(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		mb.Put(worker.Job{Trigger: "start", At: time.Now()})
	}

	// Hot reload on SIGHUP or config file change
	reloadCh := make(chan struct{}, 1)
	go reloadLoop(ctx, cmd, reloadCh, w, sched, log)
	go forwardHangup(ctx, reloadCh)
	if cfgFile := activeConfigPath(); cfgFile != "" {
		cw := watcher.New(cfgFile, watcher.Options{
			Mode:         cfg.Reload.Mode,
			PollInterval: cfg.Reload.PollInterval,
			Debounce:     cfg.Reload.Debounce,
		}, log, func() { requestReload(reloadCh) })
		go func() {
			if err := cw.Start(ctx); err != nil {
				log.Error("config watcher stopped", "error", err)
			}
		}()
	}

	log.Info("drive-cleaner serving",
		"version", Version,
		"base", cfg.Scan.BasePath,
		"cron", cfg.Schedule.Cron,
	)

	w.Start(ctx)
	log.Info("exit complete")
	return nil
}

// scheduler owns the single cron entry that feeds the mailbox.
type scheduler struct {
	cron  *cron.Cron
	entry cron.EntryID
	spec  string
	mb    *mailbox.Mailbox[worker.Job]
	log   logging.Logger
}

func newScheduler(mb *mailbox.Mailbox[worker.Job], log logging.Logger) *scheduler {
	return &scheduler{cron: cron.New(), mb: mb, log: log}
}

// Schedule replaces the current entry with spec. An unchanged spec is a no-op.
func (s *scheduler) Schedule(spec string) error {
	if spec == s.spec {
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.log.Debug("cron fired", "spec", spec)
		s.mb.Put(worker.Job{Trigger: "cron", At: time.Now()})
	})
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", spec, err)
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry, s.spec = id, spec
	return nil
}

func (s *scheduler) Start() { s.cron.Start() }

func (s *scheduler) Stop() { <-s.cron.Stop().Done() }

// activeConfigPath is the config file in use, or "" when running on defaults.
func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.DefaultPath
	}
	return ""
}

func requestReload(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func forwardHangup(ctx context.Context, ch chan<- struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			requestReload(ch)
		}
	}
}

func reloadLoop(ctx context.Context, cmd *cobra.Command, ch <-chan struct{}, w *worker.Worker, s *scheduler, log logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
		}

		newCfg, err := loadConfig(cmd)
		if err != nil {
			log.Error("config reload failed", "error", err)
			continue
		}
		if err := reload(newCfg, w, s); err != nil {
			log.Error("config reload failed", "error", err)
			continue
		}
		log.Info("config reloaded", "base", newCfg.Scan.BasePath, "cron", newCfg.Schedule.Cron)
	}
}

func reload(cfg *config.Config, w *worker.Worker, s *scheduler) error {
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required for serve")
	}
	if err := s.Schedule(cfg.Schedule.Cron); err != nil {
		return err
	}
	w.UpdateConfig(settingsFrom(cfg))
	return nil
}
