package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

type OSFS struct{}

// the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (such as creation time) are handled in build-tagged files.

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:    path,
		Size:    st.Size(),
		MTime:   st.ModTime(),
		Created: createdAt(path, st),
		IsDir:   st.IsDir(),
	}, nil
}

func (o *OSFS) ReadFile(path string) ([]byte, error) {
	var data []byte
	err := retry(context.Background(), "read file", func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// ReadDir lists path sorted by name.
func (o *OSFS) ReadDir(path string) ([]DirEntry, error) {
	var entries []os.DirEntry
	err := retry(context.Background(), "read dir", func() error {
		var err error
		entries, err = os.ReadDir(path)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

// Remove deletes a single file. A missing file is not an error.
func (o *OSFS) Remove(ctx context.Context, path string) error {
	return retry(ctx, "remove", func() error {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	})
}

func (o *OSFS) RemoveAll(ctx context.Context, path string) error {
	return retry(ctx, "remove all", func() error {
		return os.RemoveAll(path)
	})
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func (o *OSFS) Move(ctx context.Context, src, dst string) error {
	return moveWithFallback(ctx, o, src, dst)
}

func (o *OSFS) WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	return writeAtomic(ctx, path, data)
}
