package retention

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/drive-cleaner/internal/archive"
	"github.com/raoulx24/drive-cleaner/internal/fs"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/tag"
)

type fixture struct {
	root   string
	store  *tag.Store
	engine *Engine
}

// newFixture lays out a build directory:
//
//	walking.yml, build.log, notes.txt, bin/app.exe, bin/x/y.dll, obj/a.o
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "app-1.0.0")
	files := map[string]string{
		"walking.yml": "manifest",
		"build.log":   "log",
		"notes.txt":   "notes",
		"bin/app.exe": "exe",
		"bin/x/y.dll": "dll",
		"obj/a.o":     "obj",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	f := fs.New()
	store := tag.NewStore(f)
	return &fixture{root: root, store: store, engine: New(f, store, logging.Nop())}
}

func (fx *fixture) tag(t *testing.T, created time.Time, instr tag.Instruction) tag.Tag {
	t.Helper()
	tg := tag.Tag{
		Root:         fx.root,
		CreationTime: float64(created.Unix()),
		CreationDate: created,
		Instruction:  instr,
		Reason:       "This directory had no tag",
		Folders:      []string{"bin", "obj"},
		Files:        []string{"walking.yml", "build.log", "notes.txt"},
	}
	require.NoError(t, fx.store.Write(context.Background(), tg))
	return tg
}

func (fx *fixture) reread(t *testing.T) tag.Tag {
	t.Helper()
	tg, err := fx.store.Read(fx.root)
	require.NoError(t, err)
	return tg
}

func (fx *fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(fx.root, filepath.FromSlash(name)))
	return err == nil
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Scenario A: 13 months old, never compressed.
func TestApplyDeletesOldDirectory(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -13, 0), tag.NotReadyToDelete)

	res, err := fx.engine.Apply(context.Background(), tg, NewThresholds(now, 12))
	require.NoError(t, err)

	assert.Equal(t, Result{DeletedFiles: 2, DeletedFolders: 2}, res)
	assert.True(t, fx.exists("walking.yml"))
	assert.True(t, fx.exists(tag.FileName))
	for _, gone := range []string{"build.log", "notes.txt", "bin", "obj"} {
		assert.False(t, fx.exists(gone), gone)
	}

	after := fx.reread(t)
	assert.Equal(t, tag.Deleted, after.Instruction)
	assert.Equal(t, "This folder was created more than 12 months ago", after.Reason)
}

// Scenario B: 7 months old.
func TestApplyCompressesMiddleAgedDirectory(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -7, 0), tag.NotReadyToDelete)

	res, err := fx.engine.Apply(context.Background(), tg, NewThresholds(now, 12))
	require.NoError(t, err)

	assert.Equal(t, Result{TotalArchives: 1, CompressedFolders: 2, CompressedFiles: 3}, res)
	assert.Equal(t,
		[]string{"bin/app.exe", "bin/x/y.dll", "build.log", "notes.txt", "obj/a.o", "walking.yml"},
		zipNames(t, filepath.Join(fx.root, tag.ArchiveName)))

	assert.True(t, fx.exists("walking.yml"))
	for _, gone := range []string{"build.log", "notes.txt", "bin", "obj"} {
		assert.False(t, fx.exists(gone), gone)
	}
	assert.Equal(t, tag.Compressed, fx.reread(t).Instruction)
}

// Scenario C: compressed earlier, now past the full window.
func TestApplyDeletesArchiveOfCompressedDirectory(t *testing.T) {
	fx := newFixture(t)
	created := now.AddDate(0, -7, 0)
	tg := fx.tag(t, created, tag.NotReadyToDelete)

	_, err := fx.engine.Apply(context.Background(), tg, NewThresholds(now, 12))
	require.NoError(t, err)

	later := now.AddDate(0, 6, 0)
	res, err := fx.engine.Apply(context.Background(), fx.reread(t), NewThresholds(later, 12))
	require.NoError(t, err)

	assert.Equal(t, Result{DeletedArchives: 1}, res)
	assert.False(t, fx.exists(tag.ArchiveName))
	assert.True(t, fx.exists("walking.yml"))
	assert.Equal(t, tag.Deleted, fx.reread(t).Instruction)
}

func TestCompressTwiceIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -7, 0), tag.NotReadyToDelete)

	first, err := fx.engine.Compress(context.Background(), tg, "aged")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalArchives)

	info, err := os.Stat(filepath.Join(fx.root, tag.ArchiveName))
	require.NoError(t, err)

	second, err := fx.engine.Compress(context.Background(), fx.reread(t), "aged")
	require.NoError(t, err)
	assert.True(t, second.IsZero())

	again, err := os.Stat(filepath.Join(fx.root, tag.ArchiveName))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	entries, err := os.ReadDir(fx.root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{tag.ArchiveName, tag.FileName, tag.MarkerName}, names)
}

func TestMissingEntriesAreCountedButNotFatal(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -7, 0), tag.NotReadyToDelete)
	tg.Folders = append(tg.Folders, "vanished")
	tg.Files = append(tg.Files, "gone.txt")

	res, err := fx.engine.Compress(context.Background(), tg, "aged")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CompressedFolders)
	assert.Equal(t, 4, res.CompressedFiles)
	assert.Equal(t, 1, res.TotalArchives)
}

func TestDeleteCountsOnlyRemovedEntries(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -13, 0), tag.NotReadyToDelete)
	tg.Folders = append(tg.Folders, "vanished")
	tg.Files = append(tg.Files, "gone.txt")

	res, err := fx.engine.Delete(context.Background(), tg, "old")
	require.NoError(t, err)
	assert.Equal(t, Result{DeletedFiles: 2, DeletedFolders: 2}, res)
}

func TestMarkerNeverRemoved(t *testing.T) {
	for _, instr := range []tag.Instruction{tag.NotReadyToDelete, tag.Compress} {
		fx := newFixture(t)
		tg := fx.tag(t, now.AddDate(0, -7, 0), instr)

		_, err := fx.engine.Compress(context.Background(), tg, "aged")
		require.NoError(t, err)
		assert.True(t, fx.exists(tag.MarkerName))

		fx2 := newFixture(t)
		tg2 := fx2.tag(t, now.AddDate(0, -13, 0), instr)
		_, err = fx2.engine.Delete(context.Background(), tg2, "old")
		require.NoError(t, err)
		assert.True(t, fx2.exists(tag.MarkerName))
	}
}

func TestEntriesOutsideRootAreIgnored(t *testing.T) {
	fx := newFixture(t)
	outside := filepath.Join(filepath.Dir(fx.root), "sibling.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	tg := fx.tag(t, now.AddDate(0, -13, 0), tag.NotReadyToDelete)
	tg.Files = append(tg.Files, "../sibling.txt")
	tg.Folders = append(tg.Folders, ".", "/etc")

	_, err := fx.engine.Delete(context.Background(), tg, "old")
	require.NoError(t, err)

	_, err = os.Stat(outside)
	assert.NoError(t, err)
	assert.True(t, fx.exists(tag.FileName))
}

func TestKeepIsNeverTouched(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(-3, 0, 0), tag.Keep)

	res, err := fx.engine.Apply(context.Background(), tg, NewThresholds(now, 12))
	require.NoError(t, err)
	assert.Equal(t, Result{Kept: 1}, res)
	assert.True(t, fx.exists("bin"))
	assert.Equal(t, tag.Keep, fx.reread(t).Instruction)
}

func TestLifecycleOnlyMovesForward(t *testing.T) {
	fx := newFixture(t)
	created := now.AddDate(0, -1, 0)
	fx.tag(t, created, tag.NotReadyToDelete)

	var seen []tag.Instruction
	last := -1
	for month := 0; month <= 24; month++ {
		th := NewThresholds(now.AddDate(0, month, 0), 12)
		_, err := fx.engine.Apply(context.Background(), fx.reread(t), th)
		require.NoError(t, err)

		cur := fx.reread(t).Instruction
		require.GreaterOrEqual(t, cur.Rank(), last, "month %d regressed to %s", month, cur)
		last = cur.Rank()
		if len(seen) == 0 || seen[len(seen)-1] != cur {
			seen = append(seen, cur)
		}
	}

	assert.Equal(t, []tag.Instruction{tag.NotReadyToDelete, tag.Compressed, tag.Deleted}, seen)
}

func TestCompressResumesAfterTagRewriteWasLost(t *testing.T) {
	fx := newFixture(t)
	created := now.AddDate(0, -7, 0)
	tg := fx.tag(t, created, tag.NotReadyToDelete)

	first, err := fx.engine.Compress(context.Background(), tg, "aged")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalArchives)
	want := zipNames(t, filepath.Join(fx.root, tag.ArchiveName))

	// The archive and sweep happened, but the tag still says not ready.
	pre := fx.tag(t, created, tag.NotReadyToDelete)

	second, err := fx.engine.Compress(context.Background(), pre, "aged")
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalArchives)
	assert.Equal(t, want, zipNames(t, filepath.Join(fx.root, tag.ArchiveName)))
	assert.Equal(t, tag.Compressed, fx.reread(t).Instruction)
	assert.True(t, fx.exists("walking.yml"))
}

func TestCompressResumeSweepsLeftovers(t *testing.T) {
	fx := newFixture(t)
	tg := fx.tag(t, now.AddDate(0, -7, 0), tag.NotReadyToDelete)

	// Only part of the tree made it into an archive before the pass stopped.
	var b archive.Builder
	b.AddFile(filepath.Join(fx.root, "build.log"), "build.log")
	_, err := b.Write(context.Background(), fs.New(), filepath.Join(fx.root, tag.ArchiveName))
	require.NoError(t, err)

	res, err := fx.engine.Compress(context.Background(), tg, "aged")
	require.NoError(t, err)
	assert.Equal(t, Result{CompressedFolders: 2, CompressedFiles: 3}, res)
	assert.Equal(t, []string{"build.log"}, zipNames(t, filepath.Join(fx.root, tag.ArchiveName)))
	for _, gone := range []string{"build.log", "notes.txt", "bin", "obj"} {
		assert.False(t, fx.exists(gone), gone)
	}
	assert.Equal(t, tag.Compressed, fx.reread(t).Instruction)
}
