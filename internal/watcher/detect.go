package watcher

import (
	"os"
	"time"
)

// fileState is what a change is judged on.
type fileState struct {
	Size    int64
	ModTime time.Time
	Exists  bool
}

func stateOf(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{Size: info.Size(), ModTime: info.ModTime(), Exists: true}, nil
}

// detect calls onChange if the file differs from the last reported state and
// has stopped growing. A vanished file is ignored until it comes back.
func (w *Watcher) detect() {
	cur, err := stateOf(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	last := w.last
	w.mu.Unlock()

	if cur == last {
		return
	}
	if !w.isStable(cur) {
		w.log.Debug("file still changing", "path", w.path)
		return
	}

	w.mu.Lock()
	w.last = cur
	w.mu.Unlock()

	w.log.Info("file changed", "path", w.path)
	w.onChange()
}

func (w *Watcher) isStable(first fileState) bool {
	if w.opts.Stability <= 0 {
		return true
	}
	time.Sleep(w.opts.Stability)

	second, err := stateOf(w.path)
	if err != nil {
		return false
	}
	return first.Size == second.Size
}
