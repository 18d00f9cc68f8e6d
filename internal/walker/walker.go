// Package walker finds managed directories under a base path and drives
// each one through tag creation or its retention instruction.
package walker

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"time"

	"github.com/raoulx24/drive-cleaner/internal/fs"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/retention"
	"github.com/raoulx24/drive-cleaner/internal/tag"
)

// BuildsName is the base directory name of build collections. Any other base
// is treated as a release tree, which nests one level deeper.
const BuildsName = "builds"

const noTagReason = "This directory had no tag"

// ErrInvalidPath is returned, with a zero result, when the base path is missing.
var ErrInvalidPath = errors.New("invalid base path")

// Policy decides what a malformed tag does to the pass.
type Policy string

const (
	SkipMalformed  Policy = "skip"
	AbortMalformed Policy = "abort"
)

type Options struct {
	Months      int
	OnMalformed Policy
	Now         func() time.Time
}

// Walker classifies candidate directories. A candidate directly contains the marker file.
type Walker struct {
	fs     fs.FS
	store  *tag.Store
	engine *retention.Engine
	log    logging.Logger
	opts   Options
}

func New(filesystem fs.FS, log logging.Logger, opts Options) *Walker {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnMalformed == "" {
		opts.OnMalformed = SkipMalformed
	}
	store := tag.NewStore(filesystem)
	return &Walker{
		fs:     filesystem,
		store:  store,
		engine: retention.New(filesystem, store, log),
		log:    log,
		opts:   opts,
	}
}

// Walk visits every directory below base. Results of every executor call are
// merged into the returned Result, which is also returned alongside any error.
func (w *Walker) Walk(ctx context.Context, base string) (retention.Result, error) {
	var res retention.Result

	base = filepath.Clean(base)
	info, err := w.fs.Stat(base)
	if err != nil || !info.IsDir {
		w.log.Info("invalid path input, nothing to do", "path", base)
		return res, fmt.Errorf("%w: %s", ErrInvalidPath, base)
	}

	th := retention.NewThresholds(w.opts.Now(), w.opts.Months)
	builds := filepath.Base(base) == BuildsName
	w.log.Debug("walking", "base", base, "builds", builds, "full", th.Full, "half", th.Half)

	err = filepath.WalkDir(base, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == base {
				return err
			}
			if !errors.Is(err, iofs.ErrNotExist) {
				w.log.Warn("cannot read directory", "path", path, "error", err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		hasMarker, hasTag, err := w.probe(path)
		if err != nil {
			w.log.Warn("cannot list directory", "path", path, "error", err)
			return nil
		}

		switch {
		case !hasMarker:
			return nil

		case hasTag:
			delta, err := w.processTagged(ctx, path, th)
			res.Add(delta)
			if err != nil {
				return err
			}
			return filepath.SkipDir

		case builds:
			delta, err := w.createTag(ctx, path)
			res.Add(delta)
			return err

		default:
			delta, err := w.relocate(ctx, base, path)
			res.Add(delta)
			return err
		}
	})

	return res, err
}

func (w *Walker) processTagged(ctx context.Context, dir string, th retention.Thresholds) (retention.Result, error) {
	t, err := w.store.Read(dir)
	if err != nil {
		if errors.Is(err, tag.ErrMalformed) && w.opts.OnMalformed == SkipMalformed {
			w.log.Error("skipping malformed tag", "dir", dir, "error", err)
			return retention.Result{TagsSkipped: 1}, nil
		}
		return retention.Result{}, err
	}

	if filepath.Clean(t.Root) != dir {
		w.log.Warn("tag root does not match its directory, rebasing", "root", t.Root, "dir", dir)
		t.Root = dir
	}

	return w.engine.Apply(ctx, t, th)
}

// createTag tags dir with its current listing.
func (w *Walker) createTag(ctx context.Context, dir string) (retention.Result, error) {
	folders, files, err := Listing(w.fs, dir)
	if err != nil {
		return retention.Result{}, fmt.Errorf("listing %s: %w", dir, err)
	}

	w.log.Info("create tag", "build", filepath.Base(dir), "instruction", tag.NotReadyToDelete, "reason", noTagReason)
	if _, err := w.store.Create(ctx, dir, tag.NotReadyToDelete, noTagReason, folders, files); err != nil {
		return retention.Result{}, err
	}
	return retention.Result{TagsCreated: 1}, nil
}

// relocate moves a release candidate's marker one level up and tags the parent.
func (w *Walker) relocate(ctx context.Context, base, dir string) (retention.Result, error) {
	if dir == base {
		w.log.Warn("release marker at the scan root, not relocating", "dir", dir)
		return retention.Result{}, nil
	}

	parent := filepath.Dir(dir)
	if _, err := w.fs.Stat(tag.Path(parent)); err == nil {
		w.log.Debug("parent already tagged", "dir", dir, "parent", parent)
		return retention.Result{}, nil
	}

	if err := w.fs.Move(ctx, filepath.Join(dir, tag.MarkerName), filepath.Join(parent, tag.MarkerName)); err != nil {
		return retention.Result{}, fmt.Errorf("relocating marker from %s: %w", dir, err)
	}
	w.log.Info("marker relocated", "from", dir, "to", parent)

	return w.createTag(ctx, parent)
}

func (w *Walker) probe(dir string) (hasMarker, hasTag bool, err error) {
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return false, false, err
	}
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		switch e.Name {
		case tag.MarkerName:
			hasMarker = true
		case tag.FileName:
			hasTag = true
		}
	}
	return hasMarker, hasTag, nil
}

// Listing splits the entries of dir into folder and file names. A nil
// filesystem means the local one.
func Listing(filesystem fs.FS, dir string) (folders, files []string, err error) {
	if filesystem == nil {
		filesystem = fs.New()
	}
	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	folders, files = []string{}, []string{}
	for _, e := range entries {
		if e.IsDir {
			folders = append(folders, e.Name)
		} else {
			files = append(files, e.Name)
		}
	}
	return folders, files, nil
}
