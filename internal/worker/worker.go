// Package worker runs cleanup passes, either once or fed by a mailbox.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/drive-cleaner/internal/fs"
	"github.com/raoulx24/drive-cleaner/internal/lock"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/mailbox"
	"github.com/raoulx24/drive-cleaner/internal/metrics"
	"github.com/raoulx24/drive-cleaner/internal/size"
	"github.com/raoulx24/drive-cleaner/internal/walker"
)

// Settings is the part of the configuration a pass depends on.
type Settings struct {
	BasePath        string
	Months          int
	OnMalformed     walker.Policy
	StrictBasePath  bool
	MetricsTextfile string
	LockPath        string
}

// Worker performs passes one at a time.
type Worker struct {
	mu  sync.RWMutex
	set Settings
	fs  fs.FS
	log logging.Logger
	mb  *mailbox.Mailbox[Job]
	now func() time.Time
}

// New creates a worker. mb may be nil when only Run is used.
func New(set Settings, log logging.Logger, mb *mailbox.Mailbox[Job], filesystem fs.FS) *Worker {
	log.Debug("creating worker")
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Worker{
		set: set,
		fs:  filesystem,
		log: log,
		mb:  mb,
		now: time.Now,
	}
}

// UpdateConfig hot-reloads settings. A pass already running keeps the old ones.
func (w *Worker) UpdateConfig(set Settings) {
	w.log.Debug("entering Worker.UpdateConfig()")
	w.mu.Lock()
	w.set = set
	w.mu.Unlock()
}

// Start runs the worker loop using mailbox semantics until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	for {
		job, ok := w.mb.Take(ctx)
		if !ok {
			w.log.Info("worker stopped")
			return
		}
		w.log.Debug("job received", "trigger", job.Trigger, "at", job.At)
		if _, err := w.Run(ctx); err != nil {
			w.log.Error("worker: pass failed", "error", err)
		}
	}
}

// Run performs one full pass: lock, size before, walk, size after, summary
// and metrics. A missing base path is reported in the Summary and is only an
// error in strict mode.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	w.mu.RLock()
	set := w.set
	w.mu.RUnlock()

	sum := Summary{
		RunID:    uuid.NewString(),
		BasePath: set.BasePath,
		Months:   set.Months,
		Started:  w.now(),
	}
	log := logging.With(w.log, "run_id", sum.RunID)

	lockPath := set.LockPath
	if lockPath == "" {
		lockPath = lock.PathFor(set.BasePath)
	}
	l, err := lock.Acquire(lockPath)
	if err != nil {
		return sum, err
	}
	defer func() {
		if err := l.Release(); err != nil {
			log.Warn("releasing lock", "path", lockPath, "error", err)
		}
	}()

	log.Info("pass started", "base", set.BasePath, "months", set.Months)

	if sum.SizeBefore, err = size.Tree(set.BasePath); err != nil {
		log.Warn("measuring size before", "error", err)
	}

	wk := walker.New(w.fs, log, walker.Options{
		Months:      set.Months,
		OnMalformed: set.OnMalformed,
		Now:         func() time.Time { return sum.Started },
	})
	res, walkErr := wk.Walk(ctx, set.BasePath)
	sum.Result = res

	if errors.Is(walkErr, walker.ErrInvalidPath) {
		sum.InvalidPath = true
		if !set.StrictBasePath {
			walkErr = nil
		}
	}

	if sum.SizeAfter, err = size.Tree(set.BasePath); err != nil {
		log.Warn("measuring size after", "error", err)
	}
	sum.Duration = w.now().Sub(sum.Started)

	sum.Log(log)
	w.writeMetrics(log, set, sum, walkErr)

	if walkErr != nil {
		return sum, fmt.Errorf("pass over %s: %w", set.BasePath, walkErr)
	}
	return sum, nil
}

func (w *Worker) writeMetrics(log logging.Logger, set Settings, sum Summary, passErr error) {
	if set.MetricsTextfile == "" {
		return
	}
	m := metrics.New(set.BasePath)
	m.Observe(sum.Result, sum.SizeBefore, sum.SizeAfter, sum.Duration, sum.Started.Add(sum.Duration), passErr)
	if err := m.WriteTextfile(set.MetricsTextfile); err != nil {
		log.Warn("writing metrics textfile", "path", set.MetricsTextfile, "error", err)
		return
	}
	log.Debug("metrics written", "path", set.MetricsTextfile)
}
