// Package archive writes the deflate zip that replaces a directory's contents
// during the compress step.
package archive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"

	"github.com/raoulx24/drive-cleaner/internal/fs"
)

// Entry maps a file on disk to its name inside the archive.
type Entry struct {
	Source string
	Name   string
}

// Stats describes a finished archive.
type Stats struct {
	Path   string
	Files  int
	Bytes  int64 // uncompressed
	Size   int64 // on disk
	Digest string
}

// Builder collects entries and writes them as one archive.
type Builder struct {
	entries []Entry
}

// AddFile queues src under name.
func (b *Builder) AddFile(src, name string) {
	b.entries = append(b.entries, Entry{Source: src, Name: filepath.ToSlash(name)})
}

// AddTree queues every regular file below dir. Names are relative to base.
func (b *Builder) AddTree(dir, base string) error {
	return filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		b.AddFile(path, rel)
		return nil
	})
}

func (b *Builder) Len() int { return len(b.entries) }

func (b *Builder) Entries() []Entry { return b.entries }

// Write streams the queued entries into dst. The archive is built under a
// temporary name and renamed into place once complete.
func (b *Builder) Write(ctx context.Context, f fs.FS, dst string) (Stats, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return Stats{}, fmt.Errorf("creating archive: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (Stats, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Stats{}, err
	}

	h := blake3.New()
	counter := &countingWriter{w: io.MultiWriter(tmp, h)}
	zw := zip.NewWriter(counter)

	st := Stats{Path: dst}
	for _, e := range b.entries {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, err := addEntry(zw, e)
		if err != nil {
			return fail(fmt.Errorf("archiving %s: %w", e.Source, err))
		}
		st.Files++
		st.Bytes += n
	}

	if err := zw.Close(); err != nil {
		return fail(fmt.Errorf("finishing archive: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing archive: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Stats{}, fmt.Errorf("closing archive: %w", err)
	}
	if err := f.Rename(ctx, tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return Stats{}, err
	}

	st.Size = counter.n
	st.Digest = hex.EncodeToString(h.Sum(nil))
	return st, nil
}

func addEntry(zw *zip.Writer, e Entry) (int64, error) {
	in, err := os.Open(e.Source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	hdr.Name = e.Name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, in)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
