package workflow

import (
	"context"
	"log/slog"
	"time"
)

// Runner advances unfinished projects on a fixed interval.
type Runner struct {
	Log      *slog.Logger
	Store    *Store
	Interval time.Duration
	Metrics  *Metrics
}

// Run blocks until ctx is done. A non-positive Interval disables it.
func (r *Runner) Run(ctx context.Context) {
	if r.Interval <= 0 {
		return
	}

	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.Log.Info("workflow_runner_started", slog.Duration("interval", r.Interval))
	for {
		select {
		case <-ctx.Done():
			r.Log.Info("workflow_runner_stopped")
			return
		case <-t.C:
			if n := r.Store.AdvanceAll(ctx); n > 0 {
				r.Metrics.observe("auto", n)
				r.Log.Info("workflow_auto_advanced", slog.Int("count", n))
			}
		}
	}
}
