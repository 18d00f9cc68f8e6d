package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
)

// errSourceChanged aborts a cross-device move when the file is edited mid-copy.
var errSourceChanged = errors.New("source changed during copy")

// copyForMove copies src to dst for a rename that cannot cross devices. The
// copy keeps the permission bits and modification time of src, so a relocated
// marker looks the same at its new place. An edit of src between attempts
// aborts the move and leaves src where it was.
func copyForMove(ctx context.Context, f FS, src, dst string) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	return retry(ctx, "copy", func() error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}
		if sourceChanged(orig, now) {
			return errSourceChanged
		}
		return copyFile(src, dst, orig.MTime)
	})
}

// sourceChanged reports any difference in size or mtime, in either direction.
func sourceChanged(orig, now FileInfo) bool {
	return now.Size != orig.Size || !now.MTime.Equal(orig.MTime)
}

func copyFile(src, dst string, mtime time.Time) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, mtime, mtime)
}
