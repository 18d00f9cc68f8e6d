// Package size totals the bytes held under a directory tree.
package size

import (
	"errors"
	iofs "io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Tree sums the sizes of all regular files below root. A missing root is empty.
// Entries that vanish during the walk are ignored.
func Tree(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Format renders n in binary units, e.g. "1.5 MiB".
func Format(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
