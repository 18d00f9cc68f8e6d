package retention

// Result counts what a pass, or a single executor call, did.
type Result struct {
	DeletedFiles      int
	DeletedFolders    int
	DeletedArchives   int
	CompressedFolders int
	CompressedFiles   int
	TotalArchives     int

	TagsCreated int
	TagsSkipped int // malformed tags passed over
	Kept        int // tags frozen by the keep override
}

// Add merges o into r.
func (r *Result) Add(o Result) {
	r.DeletedFiles += o.DeletedFiles
	r.DeletedFolders += o.DeletedFolders
	r.DeletedArchives += o.DeletedArchives
	r.CompressedFolders += o.CompressedFolders
	r.CompressedFiles += o.CompressedFiles
	r.TotalArchives += o.TotalArchives
	r.TagsCreated += o.TagsCreated
	r.TagsSkipped += o.TagsSkipped
	r.Kept += o.Kept
}

func (r Result) IsZero() bool {
	return r == Result{}
}
