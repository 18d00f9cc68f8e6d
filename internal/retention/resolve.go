package retention

import (
	"fmt"
	"time"

	"github.com/raoulx24/drive-cleaner/internal/tag"
)

// Thresholds are the two age cut-offs of one pass.
type Thresholds struct {
	Months int
	Full   time.Time // now - Months
	Half   time.Time // halfway between Full and now
}

// NewThresholds derives both cut-offs from now and the retention window in months.
func NewThresholds(now time.Time, months int) Thresholds {
	full := now.AddDate(0, -months, 0)
	return Thresholds{
		Months: months,
		Full:   full,
		Half:   now.Add(-now.Sub(full) / 2),
	}
}

// Decision is the resolved next instruction and the reason recorded with it.
type Decision struct {
	Instruction tag.Instruction
	Reason      string
}

// Resolve maps a tag to its next instruction. Rules, in order:
//
//	keep                                  -> keep (nothing else is evaluated)
//	Full < CreationDate <= Half, not yet compressed -> compress
//	CreationDate <= Full, not yet deleted -> delete
//	otherwise                             -> not_ready_to_delete
func Resolve(t tag.Tag, th Thresholds) Decision {
	c := t.CreationDate
	half := (th.Months + 1) / 2

	switch {
	case t.Instruction == tag.Keep:
		return Decision{Instruction: tag.Keep, Reason: t.Reason}

	case !c.After(th.Half) && c.After(th.Full) && t.Instruction.Rank() < tag.Compressed.Rank():
		return Decision{
			Instruction: tag.Compress,
			Reason:      fmt.Sprintf("This folder was created between %d and %d months ago", half, th.Months),
		}

	case !c.After(th.Full) && t.Instruction != tag.Deleted:
		return Decision{
			Instruction: tag.Delete,
			Reason:      fmt.Sprintf("This folder was created more than %d months ago", th.Months),
		}

	case t.Instruction == tag.Compressed || t.Instruction == tag.Deleted:
		return Decision{
			Instruction: tag.NotReadyToDelete,
			Reason:      fmt.Sprintf("This folder is already %s", t.Instruction),
		}

	default:
		return Decision{
			Instruction: tag.NotReadyToDelete,
			Reason:      fmt.Sprintf("This folder was created less than %d months ago", half),
		}
	}
}
