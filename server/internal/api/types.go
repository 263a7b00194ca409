package api

import (
	"time"

	"github.com/netviz/netviz/pkg/types"
)

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	types.Stats
	RecentNetworks []types.Network `json:"recent_networks"`
	Generation     uint64          `json:"generation"`
}

// SearchQuery echoes the criteria that were applied.
type SearchQuery struct {
	ASN  *int64  `json:"asn,omitempty"`
	Name *string `json:"name,omitempty"`
}

// SearchResponse is the payload for GET /api/v1/search.
type SearchResponse struct {
	Query   SearchQuery     `json:"query"`
	Results []types.Network `json:"results"`
	Count   int             `json:"count"`
}

// RefreshResponse describes one refresh cycle.
type RefreshResponse struct {
	CycleID    string    `json:"cycle_id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	OK         bool      `json:"ok"`
	Skipped    bool      `json:"skipped,omitempty"`
	Generation uint64    `json:"generation"`
	Networks   int       `json:"networks"`
	Error      string    `json:"error,omitempty"`
}

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	Generation  uint64           `json:"generation"`
	Networks    int              `json:"networks"`
	Source      string           `json:"source,omitempty"`
	LoadedAt    *time.Time       `json:"loaded_at,omitempty"`
	NextRefresh *time.Time       `json:"next_refresh,omitempty"`
	LastRefresh *RefreshResponse `json:"last_refresh,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
