package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"

	"github.com/netviz/netviz/pkg/types"
	"github.com/netviz/netviz/server/internal/cache"
	"github.com/netviz/netviz/server/internal/fetch"
	"github.com/netviz/netviz/server/internal/store"
)

// ErrBusy is returned when a cycle is requested while another one runs.
var ErrBusy = errors.New("refresh: a cycle is already running")

// Kinds of cycle, reported in Event.Kind.
const (
	KindStartup   = "startup"
	KindScheduled = "scheduled"
	KindManual    = "manual"
	KindReload    = "reload"
)

// Fetcher downloads fresh data into the cache directory.
type Fetcher interface {
	Fetch(ctx context.Context) (*fetch.Result, error)
}

// LoadFunc reads the cache file into records.
type LoadFunc func(path string) ([]types.Network, error)

// Event describes the outcome of one cycle.
type Event struct {
	CycleID    string        `json:"cycle_id"`
	Kind       string        `json:"kind"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Generation uint64        `json:"generation,omitempty"`
	Networks   int           `json:"networks,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"`
	Err        error         `json:"-"`
}

// OK reports whether the cycle succeeded.
func (e Event) OK() bool { return e.Err == nil }

// Observer is told about every finished cycle. Observe is called on the
// cycle's goroutine and must not block.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

// fileStamp identifies a version of the cache file.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Trigger runs refresh cycles against a store.
type Trigger struct {
	store   *store.Store
	fetcher Fetcher
	load    LoadFunc
	path    string
	now     func() time.Time

	observers []Observer

	// running is held for the duration of a cycle.
	running sync.Mutex

	mu       sync.Mutex
	last     *Event
	stamp    fileStamp
	cron     *cron.Cron
	schedule cron.Schedule
	cancel   context.CancelFunc
	// watchDone is closed when the goroutine tied to the last Start exits.
	watchDone chan struct{}
}

// New creates a Trigger that refreshes st from the cache file at path,
// downloading it with f.
func New(st *store.Store, f Fetcher, path string, observers ...Observer) *Trigger {
	return &Trigger{
		store:     st,
		fetcher:   f,
		load:      cache.Load,
		path:      path,
		now:       time.Now,
		observers: observers,
	}
}

// Observe registers o for every subsequent cycle. Call before Start.
func (t *Trigger) Observe(o Observer) {
	t.observers = append(t.observers, o)
}

// Bootstrap populates the store for the first time. When the cache file does
// not exist it is fetched once; a fetch failure is logged and the load is
// still attempted. A load failure is returned: without a snapshot the server
// has nothing to serve.
func (t *Trigger) Bootstrap(ctx context.Context) error {
	if !cache.Exists(t.path) {
		slog.Info("refresh: no cached data, fetching initial dataset", "path", t.path)
		if _, err := t.fetcher.Fetch(ctx); err != nil {
			slog.Error("refresh: initial fetch failed", "err", err)
		}
	}
	ev := t.cycle(ctx, KindStartup, false, false)
	if ev.Err != nil {
		return ev.Err
	}
	return nil
}

// RunOnce runs a full fetch-load-replace cycle now. It returns ErrBusy if a
// cycle is already in flight, otherwise the cycle's error.
func (t *Trigger) RunOnce(ctx context.Context) (Event, error) {
	if !t.running.TryLock() {
		return Event{}, ErrBusy
	}
	defer t.running.Unlock()
	ev := t.run(ctx, KindManual, true, false)
	return ev, ev.Err
}

// Reload reloads the cache file without fetching. It is a no-op when the
// file has not changed since the last successful load.
func (t *Trigger) Reload(ctx context.Context) (Event, error) {
	if !t.running.TryLock() {
		return Event{}, ErrBusy
	}
	defer t.running.Unlock()
	ev := t.run(ctx, KindReload, false, true)
	return ev, ev.Err
}

// cycle runs with the running lock held.
func (t *Trigger) cycle(ctx context.Context, kind string, withFetch, skipUnchanged bool) Event {
	t.running.Lock()
	defer t.running.Unlock()
	return t.run(ctx, kind, withFetch, skipUnchanged)
}

// run must be called with running held.
func (t *Trigger) run(ctx context.Context, kind string, withFetch, skipUnchanged bool) Event {
	ev := Event{CycleID: uuid.NewString(), Kind: kind, StartedAt: t.now()}
	log := slog.With("cycle", ev.CycleID, "kind", kind)
	log.Info("refresh: cycle started")

	ev.Err = t.refresh(ctx, log, withFetch, skipUnchanged, &ev)
	ev.Duration = t.now().Sub(ev.StartedAt)

	switch {
	case ev.Err != nil:
		log.Error("refresh: cycle failed, keeping previous snapshot",
			"err", ev.Err,
			"generation", t.store.Generation(),
			"duration", ev.Duration,
		)
	case ev.Skipped:
		log.Debug("refresh: cache file unchanged, nothing to do")
	default:
		log.Info("refresh: cycle complete",
			"networks", ev.Networks,
			"generation", ev.Generation,
			"duration", ev.Duration,
		)
	}

	t.mu.Lock()
	evCopy := ev
	t.last = &evCopy
	t.mu.Unlock()

	for _, o := range t.observers {
		o.Observe(ev)
	}
	return ev
}

func (t *Trigger) refresh(ctx context.Context, log *slog.Logger, withFetch, skipUnchanged bool, ev *Event) error {
	if withFetch {
		res, err := t.fetcher.Fetch(ctx)
		if err != nil {
			return err
		}
		log.Info("refresh: fetch complete", "written", len(res.Written), "failed", len(res.Failed))
	}

	stamp, err := statFile(t.path)
	if err != nil {
		return err
	}
	if skipUnchanged {
		t.mu.Lock()
		same := t.stamp == stamp
		t.mu.Unlock()
		if same {
			ev.Skipped = true
			ev.Generation = t.store.Generation()
			ev.Networks = t.store.Len()
			return nil
		}
	}

	nets, err := t.load(t.path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	snap := types.NewSnapshot(nets, t.path, t.now())
	ev.Generation = t.store.Replace(snap)
	ev.Networks = snap.Len()

	t.mu.Lock()
	t.stamp = stamp
	t.mu.Unlock()
	return nil
}

func statFile(path string) (fileStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, fmt.Errorf("refresh: stat %q: %w: %w", path, types.ErrIO, err)
	}
	return fileStamp{size: fi.Size(), modTime: fi.ModTime()}, nil
}

// Last returns the most recent cycle outcome, if any.
func (t *Trigger) Last() (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return Event{}, false
	}
	return *t.last, true
}
