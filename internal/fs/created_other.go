//go:build !linux && !darwin && !windows

package fs

import (
	"os"
	"time"
)

// No portable birth time here; the modification time is the closest stable value.
func createdAt(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
