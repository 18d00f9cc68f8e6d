package worker

import (
	"time"

	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/retention"
	"github.com/raoulx24/drive-cleaner/internal/size"
)

// Summary is the end-of-run report of one pass.
type Summary struct {
	RunID       string
	BasePath    string
	Months      int
	Started     time.Time
	Duration    time.Duration
	SizeBefore  int64
	SizeAfter   int64
	InvalidPath bool
	Result      retention.Result
}

// Freed is the number of bytes the pass released. Never negative.
func (s Summary) Freed() int64 {
	if s.SizeAfter >= s.SizeBefore {
		return 0
	}
	return s.SizeBefore - s.SizeAfter
}

// Log writes the summary as one structured line.
func (s Summary) Log(log logging.Logger) {
	r := s.Result
	log.Info("run summary",
		"run_id", s.RunID,
		"base", s.BasePath,
		"deleted_files", r.DeletedFiles,
		"deleted_folders", r.DeletedFolders,
		"deleted_archives", r.DeletedArchives,
		"compressed_folders", r.CompressedFolders,
		"compressed_files", r.CompressedFiles,
		"total_archives", r.TotalArchives,
		"tags_created", r.TagsCreated,
		"tags_skipped", r.TagsSkipped,
		"kept", r.Kept,
		"size_before", size.Format(s.SizeBefore),
		"size_after", size.Format(s.SizeAfter),
		"freed", size.Format(s.Freed()),
		"duration", s.Duration.Round(time.Millisecond).String(),
	)
}
