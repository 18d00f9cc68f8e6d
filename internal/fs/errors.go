package fs

import (
	"errors"
	"syscall"
)

// defines helpers for detecting transient filesystem errors.
// These determine whether an operation should retry or fail immediately.

func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// network shares occasionally report these while a handle is being released
	return errors.Is(err, syscall.EINTR)
}

// isCrossDevice reports a rename that cannot cross mount points.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
