package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// wraps os.Rename with retry logic.
// Tag files and archives are finalized through it, so a reader never observes a partial file.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}

// moveWithFallback renames src to dst, copying across devices when needed.
func moveWithFallback(ctx context.Context, f FS, src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return renameWithRetry(ctx, src, dst)
	}

	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".move")
	if err := copyForMove(ctx, f, src, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := renameWithRetry(ctx, tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return f.Remove(ctx, src)
}

// writeAtomic writes data to a temp file next to path, syncs it and renames it over path.
func writeAtomic(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := renameWithRetry(ctx, tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
