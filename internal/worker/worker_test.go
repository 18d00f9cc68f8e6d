package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/drive-cleaner/internal/lock"
	"github.com/raoulx24/drive-cleaner/internal/logging"
	"github.com/raoulx24/drive-cleaner/internal/mailbox"
	"github.com/raoulx24/drive-cleaner/internal/retention"
	"github.com/raoulx24/drive-cleaner/internal/tag"
	"github.com/raoulx24/drive-cleaner/internal/walker"
)

func touch(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func settings(t *testing.T, base string) Settings {
	t.Helper()
	dir := t.TempDir()
	return Settings{
		BasePath:        base,
		Months:          12,
		OnMalformed:     walker.SkipMalformed,
		MetricsTextfile: filepath.Join(dir, "drive_cleaner.prom"),
		LockPath:        filepath.Join(dir, "drive-cleaner.lock"),
	}
}

func TestRunInvalidPath(t *testing.T) {
	set := settings(t, filepath.Join(t.TempDir(), "missing"))

	sum, err := New(set, logging.Nop(), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.InvalidPath)
	assert.True(t, sum.Result.IsZero())
	assert.NotEmpty(t, sum.RunID)

	set.StrictBasePath = true
	sum, err = New(set, logging.Nop(), nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, walker.ErrInvalidPath))
	assert.True(t, sum.InvalidPath)

	prom, err := os.ReadFile(set.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "drive_cleaner_last_run_success")
}

func TestRunTagsAndDeletes(t *testing.T) {
	base := filepath.Join(t.TempDir(), walker.BuildsName)

	fresh := filepath.Join(base, "app", "2.0.0")
	touch(t, filepath.Join(fresh, tag.MarkerName), "")
	touch(t, filepath.Join(fresh, "app.bin"), "fresh")

	old := filepath.Join(base, "app", "1.0.0")
	touch(t, filepath.Join(old, tag.MarkerName), "")
	touch(t, filepath.Join(old, "app.bin"), "0123456789")
	created := time.Now().AddDate(-2, 0, 0)
	touch(t, filepath.Join(old, tag.FileName), string(tag.Encode(tag.Tag{
		Root:         old,
		CreationTime: float64(created.Unix()),
		CreationDate: created.Truncate(time.Second),
		Instruction:  tag.NotReadyToDelete,
		Reason:       "seeded",
		Folders:      []string{},
		Files:        []string{"app.bin", tag.MarkerName},
	})))

	set := settings(t, base)
	sum, err := New(set, logging.Nop(), nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, sum.InvalidPath)
	assert.Equal(t, retention.Result{DeletedFiles: 1, TagsCreated: 1}, sum.Result)
	assert.Greater(t, sum.SizeBefore, sum.SizeAfter)
	assert.Equal(t, sum.SizeBefore-sum.SizeAfter, sum.Freed())

	assert.NoFileExists(t, filepath.Join(old, "app.bin"))
	assert.FileExists(t, filepath.Join(old, tag.MarkerName))
	assert.FileExists(t, filepath.Join(fresh, tag.FileName))

	prom, err := os.ReadFile(set.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `drive_cleaner_pass_actions{action="deleted",base="`+base+`",kind="file"} 1`)
}

func TestRunLocked(t *testing.T) {
	set := settings(t, t.TempDir())

	l, err := lock.Acquire(set.LockPath)
	require.NoError(t, err)
	defer l.Release()

	_, err = New(set, logging.Nop(), nil, nil).Run(context.Background())
	assert.True(t, errors.Is(err, lock.ErrLocked))
}

func TestUpdateConfig(t *testing.T) {
	set := settings(t, filepath.Join(t.TempDir(), "missing"))
	w := New(set, logging.Nop(), nil, nil)

	set.BasePath = t.TempDir()
	w.UpdateConfig(set)

	sum, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sum.InvalidPath)
	assert.Equal(t, set.BasePath, sum.BasePath)
}

func TestStartRunsQueuedPass(t *testing.T) {
	set := settings(t, t.TempDir())
	mb := mailbox.New[Job]()
	w := New(set, logging.Nop(), mb, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	mb.Put(Job{Trigger: "test", At: time.Now()})
	assert.Eventually(t, func() bool {
		_, err := os.Stat(set.MetricsTextfile)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSummaryFreed(t *testing.T) {
	assert.Equal(t, int64(0), Summary{SizeBefore: 10, SizeAfter: 20}.Freed())
	assert.Equal(t, int64(5), Summary{SizeBefore: 10, SizeAfter: 5}.Freed())
}
