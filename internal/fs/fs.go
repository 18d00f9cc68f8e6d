// Package fs defines the filesystem abstraction used by drive-cleaner.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Path    string
	Size    int64
	MTime   time.Time
	Created time.Time
	IsDir   bool
}

// DirEntry is one name inside a directory.
type DirEntry struct {
	Name  string
	IsDir bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]DirEntry, error)
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Move(ctx context.Context, src, dst string) error
	WriteFileAtomic(ctx context.Context, path string, data []byte) error
}
