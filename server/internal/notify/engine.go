package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netviz/netviz/server/internal/config"
	"github.com/netviz/netviz/server/internal/refresh"
)

// RuleRefreshFailed names the alert raised for failing refresh cycles.
const RuleRefreshFailed = "refresh_failed"

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is one refresh failure episode.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Failures   int        `json:"failures"`
	LastError  string     `json:"last_error,omitempty"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Engine counts consecutive failed cycles and fires an alert once the
// threshold is reached.
//
// Engine is safe for concurrent use.
type Engine struct {
	threshold int
	cooldown  time.Duration
	webhooks  []config.WebhookConfig
	client    *http.Client
	now       func() time.Time

	mu       sync.Mutex
	failures int
	active   *Alert
	lastFire time.Time
	history  []*Alert

	inflight sync.WaitGroup
}

var _ refresh.Observer = (*Engine)(nil)

// New creates an Engine from the notify configuration.
func New(cfg config.NotifyConfig) *Engine {
	threshold := cfg.FailureThreshold
	if threshold < 1 {
		threshold = 1
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Engine{
		threshold: threshold,
		cooldown:  cooldown,
		webhooks:  cfg.Webhooks,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
}

// Observe updates the failure count with the outcome of one cycle.
// Skipped reloads carry no signal and are ignored.
func (e *Engine) Observe(ev refresh.Event) {
	if ev.Skipped {
		return
	}
	if ev.OK() {
		e.resolve(ev)
		return
	}
	e.fail(ev)
}

func (e *Engine) fail(ev refresh.Event) {
	now := e.now()

	e.mu.Lock()
	e.failures++
	failures := e.failures
	if e.active != nil {
		e.active.Failures = failures
		e.active.LastError = ev.Err.Error()
		e.mu.Unlock()
		return
	}
	if failures < e.threshold || (!e.lastFire.IsZero() && now.Sub(e.lastFire) < e.cooldown) {
		e.mu.Unlock()
		return
	}
	a := &Alert{
		ID:        uuid.NewString(),
		RuleName:  RuleRefreshFailed,
		Severity:  "warning",
		Message:   fmt.Sprintf("[warning] %d consecutive refresh cycles failed: %v", failures, ev.Err),
		Failures:  failures,
		LastError: ev.Err.Error(),
		FiredAt:   now,
		State:     StateFiring,
	}
	e.active = a
	e.lastFire = now
	alertCopy := *a
	e.mu.Unlock()

	slog.Warn("notify: alert fired",
		"rule", RuleRefreshFailed,
		"failures", failures,
		"cycle", ev.CycleID,
		"err", ev.Err,
	)
	e.dispatch(&alertCopy)
}

func (e *Engine) resolve(ev refresh.Event) {
	now := e.now()

	e.mu.Lock()
	e.failures = 0
	a := e.active
	if a == nil {
		e.mu.Unlock()
		return
	}
	e.active = nil
	a.State = StateResolved
	a.ResolvedAt = &now
	a.Message = fmt.Sprintf("[resolved] refresh recovered after %d failed cycles", a.Failures)
	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	slog.Info("notify: alert resolved", "rule", RuleRefreshFailed, "cycle", ev.CycleID)
	e.dispatch(&alertCopy)
}

func (e *Engine) dispatch(a *Alert) {
	if len(e.webhooks) == 0 {
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.deliver(a)
	}()
}

// Wait blocks until all pending webhook deliveries have finished.
func (e *Engine) Wait() { e.inflight.Wait() }

// Failures returns the current number of consecutive failed cycles.
func (e *Engine) Failures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures
}

// Active returns the firing alert, if any, plus alerts resolved within the
// past hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, 1+len(e.history))
	if e.active != nil {
		cp := *e.active
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}
