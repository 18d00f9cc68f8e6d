//go:build darwin

package fs

import (
	"os"
	"syscall"
	"time"
)

func createdAt(_ string, info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(st.Birthtimespec.Unix())
}
