// Package tag reads and writes system.tag, the per-directory retention record.
//
// A tag is a plain text file with one Key~Value line per field in a fixed
// order. Folders and Files are bracketed lists of quoted names. The store
// replaces tag files atomically so a directory is never left without one.
package tag

import (
	"fmt"
	"time"
)

const (
	// FileName is the tag file kept inside every managed directory.
	FileName = "system.tag"
	// MarkerName identifies a directory as a managed unit. Only its presence matters.
	MarkerName = "walking.yml"
	// ArchiveName is written by the compress step next to the tag.
	ArchiveName = "archive.zip"
)

type Instruction string

const (
	Keep             Instruction = "keep"
	NotReadyToDelete Instruction = "not_ready_to_delete"
	Compress         Instruction = "compress"
	Compressed       Instruction = "compressed"
	Delete           Instruction = "delete"
	Deleted          Instruction = "deleted"
)

// Valid reports whether i is one of the known instructions.
func (i Instruction) Valid() bool {
	switch i {
	case Keep, NotReadyToDelete, Compress, Compressed, Delete, Deleted:
		return true
	}
	return false
}

// Rank orders instructions along the lifecycle. Keep ranks above everything
// because it freezes the tag.
func (i Instruction) Rank() int {
	switch i {
	case NotReadyToDelete:
		return 0
	case Compress:
		return 1
	case Compressed:
		return 2
	case Delete:
		return 3
	case Deleted:
		return 4
	case Keep:
		return 5
	}
	return -1
}

// Tag is the retention record of one directory.
type Tag struct {
	Root         string
	CreationTime float64 // seconds since the epoch, as captured at tag creation
	CreationDate time.Time
	Instruction  Instruction
	Reason       string
	Folders      []string
	Files        []string
	Notes        string
}

// Protected reports whether name must survive every delete sweep.
func Protected(name string) bool {
	return name == MarkerName || name == FileName || name == ArchiveName
}

func (t Tag) String() string {
	return fmt.Sprintf("%s [%s]", t.Root, t.Instruction)
}
