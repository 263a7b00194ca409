package notify

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netviz/netviz/server/internal/config"
	"github.com/netviz/netviz/server/internal/refresh"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func failed(id string) refresh.Event {
	return refresh.Event{CycleID: id, Err: errors.New("upstream 503")}
}
func succeeded(id string) refresh.Event { return refresh.Event{CycleID: id, Generation: 2} }

func newEngine(cfg config.NotifyConfig) (*Engine, *clock) {
	e := New(cfg)
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	e.now = c.now
	return e, c
}

func TestEngine_FiresAtThreshold(t *testing.T) {
	e, _ := newEngine(config.NotifyConfig{FailureThreshold: 3})

	e.Observe(failed("c1"))
	e.Observe(failed("c2"))
	assert.Empty(t, e.Active())

	e.Observe(failed("c3"))
	active := e.Active()
	require.Len(t, active, 1)
	a := active[0]
	assert.Equal(t, RuleRefreshFailed, a.RuleName)
	assert.Equal(t, StateFiring, a.State)
	assert.Equal(t, 3, a.Failures)
	assert.Equal(t, "upstream 503", a.LastError)
	assert.Len(t, a.ID, 36)

	e.Observe(failed("c4"))
	active = e.Active()
	require.Len(t, active, 1, "a firing alert is updated, not duplicated")
	assert.Equal(t, a.ID, active[0].ID)
	assert.Equal(t, 4, active[0].Failures)
}

func TestEngine_SuccessResetsCountAndResolves(t *testing.T) {
	e, c := newEngine(config.NotifyConfig{FailureThreshold: 2})

	e.Observe(failed("c1"))
	e.Observe(succeeded("c2"))
	assert.Equal(t, 0, e.Failures())
	e.Observe(failed("c3"))
	assert.Empty(t, e.Active(), "count restarts after a success")

	e.Observe(failed("c4"))
	require.Len(t, e.Active(), 1)

	c.advance(time.Minute)
	e.Observe(succeeded("c5"))
	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, StateResolved, active[0].State)
	require.NotNil(t, active[0].ResolvedAt)

	c.advance(2 * time.Hour)
	assert.Empty(t, e.Active(), "resolved alerts age out")
}

func TestEngine_SkippedCyclesIgnored(t *testing.T) {
	e, _ := newEngine(config.NotifyConfig{FailureThreshold: 1})
	e.Observe(failed("c1"))
	e.Observe(refresh.Event{CycleID: "c2", Skipped: true})
	require.Len(t, e.Active(), 1)
	assert.Equal(t, StateFiring, e.Active()[0].State)
}

func TestEngine_Cooldown(t *testing.T) {
	e, c := newEngine(config.NotifyConfig{FailureThreshold: 1, Cooldown: 10 * time.Minute})

	e.Observe(failed("c1"))
	e.Observe(succeeded("c2"))
	c.advance(time.Minute)
	e.Observe(failed("c3"))
	for _, a := range e.Active() {
		assert.NotEqual(t, StateFiring, a.State, "re-fire suppressed inside cooldown")
	}

	c.advance(10 * time.Minute)
	e.Observe(failed("c4"))
	active := e.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, StateFiring, active[0].State)
}

func TestEngine_DeliversWebhooks(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, r.URL.Path+" "+string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("NETVIZ_TEST_SLACK", srv.URL+"/slack")
	t.Setenv("NETVIZ_TEST_HOOK", srv.URL+"/hook")
	e, _ := newEngine(config.NotifyConfig{
		FailureThreshold: 1,
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "NETVIZ_TEST_SLACK"},
			{Type: "http", URLEnv: "NETVIZ_TEST_HOOK"},
			{Type: "http", URLEnv: "NETVIZ_TEST_UNSET"},
		},
	})

	e.Observe(failed("c1"))
	e.Wait()
	e.Observe(succeeded("c2"))
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 4)
	assert.Contains(t, bodies[0], "/slack")
	assert.Contains(t, bodies[0], "[WARNING]")
	assert.Contains(t, bodies[1], `"state":"firing"`)
	assert.Contains(t, bodies[2], "[RESOLVED]")
	assert.Contains(t, bodies[3], `"state":"resolved"`)
}

func TestEngine_WebhookErrorDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("NETVIZ_TEST_TEAMS", srv.URL)
	e, _ := newEngine(config.NotifyConfig{
		Webhooks: []config.WebhookConfig{{Type: "teams", URLEnv: "NETVIZ_TEST_TEAMS"}},
	})
	e.Observe(failed("c1"))
	e.Wait()
	assert.Len(t, e.Active(), 1)
}
