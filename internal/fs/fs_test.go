package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryTransientThenSuccess(t *testing.T) {
	restore := shortRetry()
	defer restore()

	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return syscall.EBUSY
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPermanentFailsImmediately(t *testing.T) {
	restore := shortRetry()
	defer restore()

	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		return os.ErrPermission
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUp(t *testing.T) {
	restore := shortRetry()
	defer restore()

	calls := 0
	err := retry(context.Background(), "op", func() error {
		calls++
		return syscall.EAGAIN
	})

	require.Error(t, err)
	assert.Equal(t, maxRetries, calls)
	assert.Contains(t, err.Error(), "failed after")
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, "op", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.tag")
	o := New()

	require.NoError(t, o.WriteFileAtomic(context.Background(), path, []byte("first\n")))
	require.NoError(t, o.WriteFileAtomic(context.Background(), path, []byte("second\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	o := New()
	assert.NoError(t, o.Remove(context.Background(), filepath.Join(t.TempDir(), "nope")))
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "child", "walking.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("marker"), 0o644))

	dst := filepath.Join(dir, "walking.yml")
	require.NoError(t, New().Move(context.Background(), src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "marker", string(data))
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	info, err := New().Stat(dir)
	require.NoError(t, err)

	assert.True(t, info.IsDir)
	assert.False(t, info.Created.IsZero())
	assert.WithinDuration(t, time.Now(), info.Created, time.Hour)
}

func TestSourceChanged(t *testing.T) {
	now := time.Now()
	base := FileInfo{Size: 10, MTime: now}

	assert.False(t, sourceChanged(base, base))
	assert.True(t, sourceChanged(base, FileInfo{Size: 11, MTime: now}))
	assert.True(t, sourceChanged(base, FileInfo{Size: 10, MTime: now.Add(time.Second)}))
	assert.True(t, sourceChanged(base, FileInfo{Size: 10, MTime: now.Add(-time.Second)}))
}

func TestCopyForMoveKeepsModeAndMTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "walking.yml")
	require.NoError(t, os.WriteFile(src, []byte("marker"), 0o600))
	mtime := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	dst := filepath.Join(dir, ".walking.yml.move")
	require.NoError(t, copyForMove(context.Background(), New(), src, dst))

	st, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, st.ModTime().Equal(mtime), "mtime %v", st.ModTime())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
	}
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "marker", string(data))
}

// changingFS reports a different size for src on every Stat.
type changingFS struct {
	*OSFS
	calls int
}

func (c *changingFS) Stat(path string) (FileInfo, error) {
	info, err := c.OSFS.Stat(path)
	c.calls++
	info.Size += int64(c.calls)
	return info, err
}

func TestCopyForMoveRefusesEditedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "walking.yml")
	require.NoError(t, os.WriteFile(src, []byte("marker"), 0o644))
	dst := filepath.Join(dir, ".walking.yml.move")

	err := copyForMove(context.Background(), &changingFS{OSFS: New()}, src, dst)
	assert.ErrorIs(t, err, errSourceChanged)
	assert.NoFileExists(t, dst)
	assert.FileExists(t, src)
}

func TestReadDirAndReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.tag"), []byte("Root~x\n"), 0o644))

	o := New()
	entries, err := o.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []DirEntry{{Name: "bin", IsDir: true}, {Name: "system.tag"}}, entries)

	data, err := o.ReadFile(filepath.Join(dir, "system.tag"))
	require.NoError(t, err)
	assert.Equal(t, "Root~x\n", string(data))

	_, err = o.ReadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = o.ReadDir(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func shortRetry() func() {
	old := retryBase
	retryBase = time.Millisecond
	return func() { retryBase = old }
}
