package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netviz/netviz/pkg/types"
	"github.com/netviz/netviz/server/internal/refresh"
	"github.com/netviz/netviz/server/internal/store"
)

func scrape(t *testing.T, r *Recorder) map[string]float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rec.Body)
	require.NoError(t, err)

	out := make(map[string]float64)
	for name, mf := range families {
		for _, m := range mf.GetMetric() {
			key := name
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			switch {
			case m.Gauge != nil:
				out[key] = m.GetGauge().GetValue()
			case m.Counter != nil:
				out[key] = m.GetCounter().GetValue()
			}
		}
	}
	return out
}

// value requires key to be present before returning its sample.
func value(t *testing.T, got map[string]float64, key string) float64 {
	t.Helper()
	require.Contains(t, got, key)
	return got[key]
}

func TestRecorder_EmptyStore(t *testing.T) {
	got := scrape(t, New(store.New(nil)))

	for _, key := range []string{
		MetricNetworks,
		MetricGeneration,
		MetricLoadedTimestamp,
		MetricLastRefreshSecs,
		MetricRefreshCycles + "{result=success}",
		MetricRefreshCycles + "{result=failure}",
	} {
		assert.Equal(t, 0.0, value(t, got, key), key)
	}
	for key := range got {
		assert.NotContains(t, key, MetricNetworksByType)
	}
}

func TestRecorder_RecordsWithoutTypeKeepOtherFamilies(t *testing.T) {
	st := store.New(types.NewSnapshot([]types.Network{{ID: 1, Name: "a"}}, "test", time.Now()))
	r := New(st)
	r.Observe(refresh.Event{Duration: time.Second})

	got := scrape(t, r)
	assert.Equal(t, 1.0, value(t, got, MetricNetworks))
	assert.Equal(t, 1.0, value(t, got, MetricGeneration))
	assert.NotZero(t, value(t, got, MetricLoadedTimestamp))
	assert.Equal(t, 1.0, value(t, got, MetricRefreshCycles+"{result=success}"))
	assert.Equal(t, 1.0, value(t, got, MetricLastRefreshSecs))
}

func TestRecorder_GatherSkipsEmptyFamilies(t *testing.T) {
	for _, mf := range New(store.New(nil)).Gather() {
		assert.NotEmpty(t, mf.GetMetric(), mf.GetName())
	}
}

func TestRecorder_SnapshotGauges(t *testing.T) {
	loaded := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st := store.New(types.NewSnapshot([]types.Network{
		{ID: 1, Name: "a", InfoType: types.String("NSP")},
		{ID: 2, Name: "b", InfoType: types.String("NSP")},
		{ID: 3, Name: "c", InfoType: types.String("Content")},
		{ID: 4, Name: "d"},
	}, "test", loaded))

	got := scrape(t, New(st))

	assert.Equal(t, 4.0, value(t, got, MetricNetworks))
	assert.Equal(t, 1.0, value(t, got, MetricGeneration))
	assert.Equal(t, float64(loaded.Unix()), value(t, got, MetricLoadedTimestamp))
	assert.Equal(t, 2.0, value(t, got, MetricNetworksByType+"{type=NSP}"))
	assert.Equal(t, 1.0, value(t, got, MetricNetworksByType+"{type=Content}"))
}

func TestRecorder_CountsCycles(t *testing.T) {
	r := New(store.New(nil))

	r.Observe(refresh.Event{Duration: 2 * time.Second})
	r.Observe(refresh.Event{Err: errors.New("boom"), Duration: 500 * time.Millisecond})
	r.Observe(refresh.Event{Skipped: true, Duration: time.Millisecond})

	got := scrape(t, r)
	assert.Equal(t, 1.0, value(t, got, MetricRefreshCycles+"{result=success}"))
	assert.Equal(t, 1.0, value(t, got, MetricRefreshCycles+"{result=failure}"))
	assert.Equal(t, 0.5, value(t, got, MetricLastRefreshSecs))
}
