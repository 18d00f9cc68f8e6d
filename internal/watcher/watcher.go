// Package watcher monitors a single file and reports when its content settles
// on a new version. serve uses it to reload the configuration.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/drive-cleaner/internal/logging"
)

const (
	ModeAuto     = "auto"
	ModeFsnotify = "fsnotify"
	ModePoll     = "poll"
	ModeOff      = "off"
)

type Options struct {
	Mode         string        // auto, fsnotify, poll, off
	PollInterval time.Duration // poll mode tick
	Debounce     time.Duration // quiet time after the last fsnotify event
	Stability    time.Duration // size must hold this long before a change counts
}

// Watcher calls onChange each time the watched file changes.
type Watcher struct {
	mu sync.Mutex

	path     string
	opts     Options
	onChange func()
	log      logging.Logger

	last fileState
}

// New creates a watcher for path. The current state of the file is the baseline.
func New(path string, opts Options, log logging.Logger, onChange func()) *Watcher {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	w := &Watcher{path: path, opts: opts, onChange: onChange, log: log}
	w.last, _ = stateOf(path)
	return w
}

// Start chooses the watching strategy and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	switch w.opts.Mode {
	case ModeOff:
		return nil

	case ModeFsnotify:
		return w.StartFsNotify(ctx)

	case ModePoll:
		w.StartPolling(ctx)
		return nil

	case ModeAuto:
		err := w.StartFsNotify(ctx)
		if err == nil {
			return nil
		}
		w.log.Warn("fsnotify disabled, polling instead", "path", w.path, "error", err)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", w.opts.Mode)
	}
}
