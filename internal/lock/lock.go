// Package lock keeps two passes from working on the same tree at once.
package lock

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// ErrLocked means another process holds the lock.
var ErrLocked = errors.New("another pass holds the lock")

// PathFor derives a per-tree lock file in the system temp directory.
func PathFor(base string) string {
	sum := blake3.Sum256([]byte(filepath.Clean(base)))
	return filepath.Join(os.TempDir(), "drive-cleaner-"+hex.EncodeToString(sum[:8])+".lock")
}
