package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/netviz/netviz/server/internal/query"
	"github.com/netviz/netviz/server/internal/refresh"
	"github.com/netviz/netviz/server/internal/store"
)

// Metric names.
const (
	MetricNetworks        = "netviz_networks"
	MetricGeneration      = "netviz_snapshot_generation"
	MetricLoadedTimestamp = "netviz_snapshot_loaded_timestamp_seconds"
	MetricNetworksByType  = "netviz_networks_by_type"
	MetricRefreshCycles   = "netviz_refresh_cycles_total"
	MetricLastRefreshSecs = "netviz_last_refresh_duration_seconds"
	resultSuccess         = "success"
	resultFailure         = "failure"
)

// Recorder collects refresh outcomes and serves /metrics.
type Recorder struct {
	store *store.Store

	mu          sync.Mutex
	success     uint64
	failure     uint64
	lastSeconds float64
}

var (
	_ refresh.Observer = (*Recorder)(nil)
	_ http.Handler     = (*Recorder)(nil)
)

// New creates a Recorder that reports on st.
func New(st *store.Store) *Recorder {
	return &Recorder{store: st}
}

// Observe counts one finished cycle. Skipped reloads are not counted.
func (r *Recorder) Observe(ev refresh.Event) {
	if ev.Skipped {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.OK() {
		r.success++
	} else {
		r.failure++
	}
	r.lastSeconds = ev.Duration.Seconds()
}

// Gather returns the current metric families sorted by name. Families with
// no samples, such as per-type counts over records without a type, are left
// out.
func (r *Recorder) Gather() []*dto.MetricFamily {
	snap := r.store.Read()

	r.mu.Lock()
	success, failure, last := r.success, r.failure, r.lastSeconds
	r.mu.Unlock()

	var loaded float64
	if !snap.LoadedAt.IsZero() {
		loaded = float64(snap.LoadedAt.UnixNano()) / 1e9
	}

	byType := query.CountBy(snap, query.FieldType)
	typeNames := make([]string, 0, len(byType))
	for t := range byType {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)
	typeMetrics := make([]*dto.Metric, 0, len(typeNames))
	for _, t := range typeNames {
		typeMetrics = append(typeMetrics, gaugeMetric(float64(byType[t]), label("type", t)))
	}

	families := []*dto.MetricFamily{
		family(MetricNetworks, "Networks in the current snapshot.", dto.MetricType_GAUGE,
			gaugeMetric(float64(snap.Len()))),
		family(MetricGeneration, "Generation of the current snapshot.", dto.MetricType_GAUGE,
			gaugeMetric(float64(r.store.Generation()))),
		family(MetricLoadedTimestamp, "Unix time the current snapshot was loaded.", dto.MetricType_GAUGE,
			gaugeMetric(loaded)),
		family(MetricNetworksByType, "Networks per info_type in the current snapshot.", dto.MetricType_GAUGE,
			typeMetrics...),
		family(MetricRefreshCycles, "Finished refresh cycles by result.", dto.MetricType_COUNTER,
			counterMetric(float64(failure), label("result", resultFailure)),
			counterMetric(float64(success), label("result", resultSuccess))),
		family(MetricLastRefreshSecs, "Duration of the last finished refresh cycle.", dto.MetricType_GAUGE,
			gaugeMetric(last)),
	}
	// The text format rejects families without samples.
	out := families[:0]
	for _, mf := range families {
		if len(mf.GetMetric()) > 0 {
			out = append(out, mf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// ServeHTTP writes the metric families in the format negotiated from the
// Accept header.
func (r *Recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	format := expfmt.Negotiate(req.Header)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Gather() {
		if err := enc.Encode(mf); err != nil {
			slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Error("metrics: close encoder", "err", err)
		}
	}
}

func family(name, help string, typ dto.MetricType, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   typ.Enum(),
		Metric: metrics,
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func gaugeMetric(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}

func counterMetric(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: proto.Float64(v)}}
}
