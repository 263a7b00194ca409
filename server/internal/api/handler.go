package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/netviz/netviz/server/internal/notify"
	"github.com/netviz/netviz/server/internal/query"
	"github.com/netviz/netviz/server/internal/refresh"
	"github.com/netviz/netviz/server/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DashboardRecent is how many networks GET /api/v1/stats lists.
const DashboardRecent = 10

// Refresher runs and reports refresh cycles.
type Refresher interface {
	RunOnce(ctx context.Context) (refresh.Event, error)
	Last() (refresh.Event, bool)
	NextRun() (time.Time, bool)
}

// AlertLister lists current alerts.
type AlertLister interface {
	Active() []*notify.Alert
}

// Options wires optional collaborators into the Handler. Nil fields disable
// the routes that need them.
type Options struct {
	Refresher Refresher
	Alerts    AlertLister
	// Admin guards mutating routes, typically auth.APIKey.
	Admin func(http.Handler) http.Handler
}

// Handler serves the API from a snapshot store.
type Handler struct {
	store  *store.Store
	opts   Options
	router chi.Router
}

// New creates a Handler wired to st and registers all routes.
func New(st *store.Store, opts Options) *Handler {
	if opts.Admin == nil {
		opts.Admin = func(next http.Handler) http.Handler { return next }
	}
	h := &Handler{store: st, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/networks", h.networks)
		r.Get("/search", h.search)
		r.Get("/network-types", h.groupCounts(query.FieldType))
		r.Get("/policy-types", h.groupCounts(query.FieldPolicy))
		r.Get("/scopes", h.groupCounts(query.FieldScope))
		r.Get("/prefixes-distribution", h.prefixes)
		r.Get("/ix-facility-correlation", h.ixFacility)
		r.Get("/status", h.status)
		r.Get("/alerts", h.alerts)
		r.With(opts.Admin).Post("/refresh", h.refresh)
	})

	h.router = r
	return h
}

// Handle registers an additional route, such as /metrics or the websocket
// stream, behind the same middleware stack.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.router.Handle(pattern, handler)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{"status": "ok"})
}

// stats returns GET /api/v1/stats.
func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	snap := h.store.Read()
	jsonResp(w, http.StatusOK, StatsResponse{
		Stats:          query.BuildStats(snap),
		RecentNetworks: query.Recent(snap, DashboardRecent),
		Generation:     snap.Generation,
	})
}

// networks returns GET /api/v1/networks.
func (h *Handler) networks(w http.ResponseWriter, r *http.Request) {
	p := query.ParseListParams(r.URL.Query())
	jsonResp(w, http.StatusOK, query.List(h.store.Read(), p))
}

// search returns GET /api/v1/search.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	p := query.ParseSearchParams(r.URL.Query())
	results := query.Search(h.store.Read(), p)
	resp := SearchResponse{
		Query:   SearchQuery{ASN: p.ASN},
		Results: results,
		Count:   len(results),
	}
	if p.Name != nil {
		name := query.TruncateChars(*p.Name, query.MaxSearchName, "")
		resp.Query.Name = &name
	}
	jsonResp(w, http.StatusOK, resp)
}

// groupCounts returns a {labels, data} series for f.
func (h *Handler) groupCounts(f query.Field) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		jsonResp(w, http.StatusOK, query.SeriesOf(query.CountBy(h.store.Read(), f)))
	}
}

// prefixes returns GET /api/v1/prefixes-distribution.
func (h *Handler) prefixes(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, query.Prefixes(h.store.Read()))
}

// ixFacility returns GET /api/v1/ix-facility-correlation.
func (h *Handler) ixFacility(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, query.IXFacilityCorrelation(h.store.Read()))
}

// status returns GET /api/v1/status.
func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	snap := h.store.Read()
	resp := StatusResponse{
		Generation: snap.Generation,
		Networks:   snap.Len(),
		Source:     snap.Source,
	}
	if !snap.LoadedAt.IsZero() {
		loaded := snap.LoadedAt.UTC()
		resp.LoadedAt = &loaded
	}
	if h.opts.Refresher != nil {
		if next, ok := h.opts.Refresher.NextRun(); ok {
			next = next.UTC()
			resp.NextRefresh = &next
		}
		if ev, ok := h.opts.Refresher.Last(); ok {
			rr := toRefreshResponse(ev)
			resp.LastRefresh = &rr
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, _ *http.Request) {
	if h.opts.Alerts == nil {
		jsonResp(w, http.StatusOK, []*notify.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.opts.Alerts.Active())
}

// refresh handles POST /api/v1/refresh.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.opts.Refresher == nil {
		jsonErr(w, http.StatusServiceUnavailable, "refresh not configured")
		return
	}
	ev, err := h.opts.Refresher.RunOnce(r.Context())
	switch {
	case errors.Is(err, refresh.ErrBusy):
		jsonErr(w, http.StatusConflict, err.Error())
	case err != nil:
		jsonResp(w, http.StatusBadGateway, toRefreshResponse(ev))
	default:
		jsonResp(w, http.StatusOK, toRefreshResponse(ev))
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func toRefreshResponse(ev refresh.Event) RefreshResponse {
	rr := RefreshResponse{
		CycleID:    ev.CycleID,
		Kind:       ev.Kind,
		StartedAt:  ev.StartedAt.UTC(),
		DurationMS: ev.Duration.Milliseconds(),
		OK:         ev.OK(),
		Skipped:    ev.Skipped,
		Generation: ev.Generation,
		Networks:   ev.Networks,
	}
	if ev.Err != nil {
		rr.Error = ev.Err.Error()
	}
	return rr
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
