package tag

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/raoulx24/drive-cleaner/internal/fs"
)

// Store persists tags through an fs.FS.
type Store struct {
	fs fs.FS
}

func NewStore(filesystem fs.FS) *Store {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Store{fs: filesystem}
}

// Path returns the tag file location for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Read parses the tag stored in dir.
func (s *Store) Read(dir string) (Tag, error) {
	p := Path(dir)
	data, err := s.fs.ReadFile(p)
	if err != nil {
		return Tag{}, fmt.Errorf("reading tag: %w", err)
	}
	return Decode(p, bytes.NewReader(data))
}

// Write atomically replaces the tag file under t.Root.
func (s *Store) Write(ctx context.Context, t Tag) error {
	if t.Root == "" {
		return fmt.Errorf("writing tag: empty root")
	}
	if err := s.fs.WriteFileAtomic(ctx, Path(t.Root), Encode(t)); err != nil {
		return fmt.Errorf("writing tag %s: %w", Path(t.Root), err)
	}
	return nil
}

// Create captures root's creation time and writes a fresh tag. The tag file
// and archive are never listed among the managed files.
func (s *Store) Create(ctx context.Context, root string, instr Instruction, reason string, folders, files []string) (Tag, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return Tag{}, fmt.Errorf("creating tag: %w", err)
	}

	created := info.Created
	if created.IsZero() {
		created = info.MTime
	}

	t := Tag{
		Root:         root,
		CreationTime: float64(created.UnixNano()) / float64(time.Second),
		CreationDate: created.Truncate(time.Microsecond).In(time.Local),
		Instruction:  instr,
		Reason:       reason,
		Folders:      without(folders, FileName, ArchiveName),
		Files:        without(files, FileName, ArchiveName),
	}

	if err := s.Write(ctx, t); err != nil {
		return Tag{}, err
	}
	return t, nil
}

func without(names []string, drop ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		skip := false
		for _, d := range drop {
			if n == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, n)
		}
	}
	return out
}
