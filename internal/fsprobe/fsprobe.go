// Package fsprobe checks whether a scan base can be cleaned.
// It performs a real create+rename test so that tag writes are known to work.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
)

// Result reports whether the base is usable and why not.
type Result struct {
	Exists   bool   // the path is an existing directory
	Writable bool   // temp file create, rename and remove all succeeded
	Reason   string // explanation when unusable
}

// OK reports whether both checks passed.
func (r Result) OK() bool { return r.Exists && r.Writable }

// Probe tests whether dir is a directory where tags can be written atomically.
func Probe(dir string) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{Reason: fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{Reason: "not a directory"}
	}

	tmp := filepath.Join(dir, ".fsprobe_tmp")
	final := filepath.Join(dir, ".fsprobe_final")

	f, err := os.Create(tmp)
	if err != nil {
		return Result{Exists: true, Reason: fmt.Sprintf("cannot create temp file: %v", err)}
	}
	f.Close()

	// Tag writes go through temp + rename, so test exactly that.
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return Result{Exists: true, Reason: fmt.Sprintf("rename failed: %v", err)}
	}
	if err := os.Remove(final); err != nil {
		return Result{Exists: true, Reason: fmt.Sprintf("remove failed: %v", err)}
	}

	return Result{Exists: true, Writable: true}
}
