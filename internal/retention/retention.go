// Package retention resolves tag instructions and runs the compress and
// delete steps they call for.
package retention

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/raoulx24/drive-cleaner/internal/archive"
	"github.com/raoulx24/drive-cleaner/internal/fs"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/tag"
)

type Engine struct {
	fs    fs.FS
	store *tag.Store
	log   logging.Logger
}

func New(filesystem fs.FS, store *tag.Store, log logging.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if store == nil {
		store = tag.NewStore(filesystem)
	}
	return &Engine{
		fs:    filesystem,
		store: store,
		log:   log,
	}
}

// Apply resolves t against th and runs the matching executor.
func (e *Engine) Apply(ctx context.Context, t tag.Tag, th Thresholds) (Result, error) {
	d := Resolve(t, th)
	name := filepath.Base(t.Root)

	switch d.Instruction {
	case tag.Keep:
		e.log.Debug("keeping", "build", name, "reason", d.Reason)
		return Result{Kept: 1}, nil

	case tag.Compress:
		e.log.Info("compressing", "build", name, "reason", d.Reason)
		return e.Compress(ctx, t, d.Reason)

	case tag.Delete:
		e.log.Info("deleting", "build", name, "reason", d.Reason)
		return e.Delete(ctx, t, d.Reason)

	default:
		e.log.Debug("not ready", "build", name, "reason", d.Reason)
		return Result{}, nil
	}
}

// Compress archives every listed folder and file into Root/archive.zip, then
// removes the sources. The marker file stays so later walks still find the
// directory. A tag that is already compressed (or further along) is left alone.
// An existing archive is kept as is and not counted again.
func (e *Engine) Compress(ctx context.Context, t tag.Tag, reason string) (Result, error) {
	var res Result

	if t.Instruction.Rank() >= tag.Compressed.Rank() {
		e.log.Info("already compressed, skipping", "root", t.Root, "instruction", t.Instruction)
		return res, nil
	}

	archivePath := filepath.Join(t.Root, tag.ArchiveName)
	if _, err := e.fs.Stat(archivePath); err == nil {
		// A pass stopped between writing the archive and rewriting the tag.
		// The archive is never rebuilt from what is left; only the sweep is redone.
		e.log.Warn("archive already exists, resuming compress", "archive", archivePath, "instruction", t.Instruction)
	} else {
		st, err := e.buildArchive(ctx, t, archivePath)
		if err != nil {
			return res, err
		}
		res.TotalArchives++
		e.log.Info("compressed", "archive", st.Path, "files", st.Files, "bytes", st.Bytes, "size", st.Size, "blake3", st.Digest)
	}

	for _, dir := range t.Folders {
		res.CompressedFolders++
		removed, err := e.removeFolder(ctx, t.Root, dir)
		if err != nil {
			return res, err
		}
		if removed {
			e.log.Info("removed folder", "folder", dir)
		}
	}

	for _, file := range t.Files {
		res.CompressedFiles++
		removed, err := e.removeFile(ctx, t.Root, file)
		if err != nil {
			return res, err
		}
		if removed {
			e.log.Info("removed file", "file", file)
		}
	}

	t.Instruction = tag.Compressed
	t.Reason = reason
	if err := e.store.Write(ctx, t); err != nil {
		return res, err
	}
	e.log.Info("tag updated", "root", t.Root, "instruction", t.Instruction)

	return res, nil
}

// Delete removes the archive of a compressed directory, or else every listed
// file (except the marker) and folder. The tag is rewritten as deleted.
func (e *Engine) Delete(ctx context.Context, t tag.Tag, reason string) (Result, error) {
	var res Result

	switch t.Instruction {
	case tag.Keep, tag.Deleted:
		e.log.Info("nothing to delete", "root", t.Root, "instruction", t.Instruction)
		return res, nil

	case tag.Compressed:
		p := filepath.Join(t.Root, tag.ArchiveName)
		if _, err := e.fs.Stat(p); err != nil {
			e.log.Warn("archive does not exist", "archive", p)
			break
		}
		if err := e.fs.Remove(ctx, p); err != nil {
			return res, fmt.Errorf("removing archive: %w", err)
		}
		res.DeletedArchives++
		e.log.Info("archive deleted", "archive", p)

	default:
		for _, file := range t.Files {
			removed, err := e.removeFile(ctx, t.Root, file)
			if err != nil {
				return res, err
			}
			if removed {
				res.DeletedFiles++
				e.log.Info("removed file", "file", file)
			}
		}
		for _, dir := range t.Folders {
			removed, err := e.removeFolder(ctx, t.Root, dir)
			if err != nil {
				return res, err
			}
			if removed {
				res.DeletedFolders++
				e.log.Info("removed folder", "folder", dir)
			}
		}
	}

	t.Instruction = tag.Deleted
	t.Reason = reason
	if err := e.store.Write(ctx, t); err != nil {
		return res, err
	}
	e.log.Info("tag updated", "root", t.Root, "instruction", t.Instruction)

	return res, nil
}

// buildArchive zips every listed folder and file that still exists into dst.
func (e *Engine) buildArchive(ctx context.Context, t tag.Tag, dst string) (archive.Stats, error) {
	var b archive.Builder
	for _, dir := range t.Folders {
		p, ok := localPath(t.Root, dir)
		if !ok {
			continue
		}
		if info, err := e.fs.Stat(p); err != nil || !info.IsDir {
			continue
		}
		if err := b.AddTree(p, t.Root); err != nil {
			return archive.Stats{}, fmt.Errorf("collecting %s: %w", p, err)
		}
	}
	for _, file := range t.Files {
		if file == tag.FileName || file == tag.ArchiveName {
			continue
		}
		p, ok := localPath(t.Root, file)
		if !ok {
			continue
		}
		if info, err := e.fs.Stat(p); err != nil || info.IsDir {
			continue
		}
		b.AddFile(p, file)
	}

	return b.Write(ctx, e.fs, dst)
}

// removeFile deletes root/name unless it is protected or missing.
func (e *Engine) removeFile(ctx context.Context, root, name string) (bool, error) {
	if tag.Protected(name) {
		e.log.Info("preserved", "file", name)
		return false, nil
	}
	p, ok := e.entryPath(root, name)
	if !ok {
		return false, nil
	}
	info, err := e.fs.Stat(p)
	if err != nil || info.IsDir {
		e.log.Warn("file does not exist", "file", name, "root", root)
		return false, nil
	}
	if err := e.fs.Remove(ctx, p); err != nil {
		return false, fmt.Errorf("removing %s: %w", p, err)
	}
	return true, nil
}

// removeFolder deletes root/name recursively unless it is missing.
func (e *Engine) removeFolder(ctx context.Context, root, name string) (bool, error) {
	p, ok := e.entryPath(root, name)
	if !ok {
		return false, nil
	}
	info, err := e.fs.Stat(p)
	if err != nil || !info.IsDir {
		e.log.Warn("folder does not exist", "folder", name, "root", root)
		return false, nil
	}
	if err := e.fs.RemoveAll(ctx, p); err != nil {
		return false, fmt.Errorf("removing %s: %w", p, err)
	}
	return true, nil
}

// entryPath joins a listed name onto root, refusing names that escape it.
func (e *Engine) entryPath(root, name string) (string, bool) {
	p, ok := localPath(root, name)
	if !ok {
		e.log.Warn("ignoring entry outside the directory", "entry", name, "root", root)
	}
	return p, ok
}

func localPath(root, name string) (string, bool) {
	if !filepath.IsLocal(name) || filepath.Clean(name) == "." {
		return "", false
	}
	return filepath.Join(root, name), true
}
