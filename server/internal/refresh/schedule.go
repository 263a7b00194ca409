package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"github.com/netviz/netviz/pkg/types"
)

// Start schedules refresh cycles according to expr, a cron expression with a
// leading seconds field ("0 0 0 * * *" is daily at midnight) or a descriptor
// such as "@every 6h".
//
// An unparseable expression is returned wrapped in types.ErrConfig and nothing is
// scheduled; the caller keeps serving the current snapshot without
// auto-refresh. A tick that finds a cycle still running is skipped.
func (t *Trigger) Start(ctx context.Context, expr string) error {
	sched, err := cron.Parse(expr)
	if err != nil {
		return fmt.Errorf("refresh: schedule %q: %w: %w", expr, types.ErrConfig, err)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() { t.tick(jobCtx) }))

	t.mu.Lock()
	if t.cron != nil {
		t.mu.Unlock()
		cancel()
		return fmt.Errorf("refresh: already started")
	}
	done := make(chan struct{})
	t.cron = c
	t.schedule = sched
	t.cancel = cancel
	t.watchDone = done
	t.mu.Unlock()

	c.Start()
	slog.Info("refresh: scheduler started", "schedule", expr, "next", sched.Next(t.now()))

	// jobCtx ends on parent cancellation and on Stop alike.
	go func() {
		defer close(done)
		<-jobCtx.Done()
		t.stop(c)
	}()
	return nil
}

func (t *Trigger) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !t.running.TryLock() {
		slog.Warn("refresh: previous cycle still running, skipping tick")
		return
	}
	defer t.running.Unlock()
	t.run(ctx, KindScheduled, true, false)
}

// NextRun returns when the next scheduled cycle fires. ok is false when the
// scheduler is not running.
func (t *Trigger) NextRun() (next time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.schedule == nil {
		return time.Time{}, false
	}
	return t.schedule.Next(t.now()), true
}

// Stop halts the scheduler, cancels a running scheduled cycle and waits for
// it to finish. It is safe to call more than once.
func (t *Trigger) Stop() {
	t.stop(nil)
}

// stop tears down the scheduler. With a non-nil only it does nothing unless
// only is still the active scheduler.
func (t *Trigger) stop(only *cron.Cron) {
	t.mu.Lock()
	c, cancel := t.cron, t.cancel
	if c == nil || (only != nil && c != only) {
		t.mu.Unlock()
		return
	}
	t.cron, t.cancel, t.schedule = nil, nil, nil
	t.mu.Unlock()

	c.Stop()
	cancel()

	// Wait for an in-flight cycle.
	t.running.Lock()
	t.running.Unlock() //nolint:staticcheck // empty critical section is the wait
	slog.Info("refresh: scheduler stopped")
}
