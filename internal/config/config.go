package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPath is read when no --config flag is given. A missing file there is not an error.
const DefaultPath = "drive-cleaner.yaml"

type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Lock      LockConfig      `yaml:"lock"`
	Reload    ReloadConfig    `yaml:"configReload"`
}

type ScanConfig struct {
	BasePath string `yaml:"basePath"`
}

type RetentionConfig struct {
	Months         int    `yaml:"months"`         // N, the full retention window
	OnMalformedTag string `yaml:"onMalformedTag"` // "skip", "abort"
	StrictBasePath bool   `yaml:"strictBasePath"` // a missing base path fails the run
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
	Output string `yaml:"output"` // "stdout", "stderr" or a path
	File   string `yaml:"file"`   // extra dated log file, e.g. logs/cleanup-{date}.log
}

type ScheduleConfig struct {
	Cron       string `yaml:"cron"` // standard 5-field spec or descriptor like @daily
	RunOnStart bool   `yaml:"runOnStart"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path, empty disables
}

type LockConfig struct {
	Path string `yaml:"path"` // empty derives one from the base path
}

// ReloadConfig controls how serve notices edits of the config file.
type ReloadConfig struct {
	Mode         string        `yaml:"mode"`         // "auto", "fsnotify", "poll", "off"
	PollInterval time.Duration `yaml:"pollInterval"` // e.g. 10s
	Debounce     time.Duration `yaml:"debounce"`     // e.g. 500ms
}

// Default returns the values used for anything the file leaves out.
func Default() *Config {
	return &Config{
		Retention: RetentionConfig{
			Months:         6,
			OnMalformedTag: "skip",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Schedule: ScheduleConfig{
			Cron: "@daily",
		},
		Reload: ReloadConfig{
			Mode:         "auto",
			PollInterval: 10 * time.Second,
			Debounce:     500 * time.Millisecond,
		},
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Scan.BasePath) == "" {
		errs = append(errs, errors.New("scan.basePath is required"))
	}
	if c.Retention.Months <= 0 {
		errs = append(errs, fmt.Errorf("retention.months must be positive, got %d", c.Retention.Months))
	}
	switch c.Retention.OnMalformedTag {
	case "skip", "abort":
	default:
		errs = append(errs, fmt.Errorf("retention.onMalformedTag must be skip or abort, got %q", c.Retention.OnMalformedTag))
	}
	switch c.Reload.Mode {
	case "", "auto", "fsnotify", "poll", "off":
	default:
		errs = append(errs, fmt.Errorf("configReload.mode must be auto, fsnotify, poll or off, got %q", c.Reload.Mode))
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
		}
	}

	return errors.Join(errs...)
}
