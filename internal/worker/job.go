package worker

import (
	"time"
)

// Job asks the worker for one pass over the configured base.
type Job struct {
	Trigger string // "start", "cron", "signal"
	At      time.Time
}
