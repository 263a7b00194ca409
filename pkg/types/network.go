package types

import "time"

// Network is one PeeringDB network record.
//
// Optional attributes are pointers: a nil pointer means the upstream record
// did not carry the field (absent or JSON null). Aggregations skip nil fields
// rather than counting them as zero or "".
type Network struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ASN  int64  `json:"asn"`

	Aka     *string `json:"aka,omitempty"`
	Status  *string `json:"status,omitempty"`
	Website *string `json:"website,omitempty"`

	// InfoType is the network category: "NSP", "Content", "Cable/DSL/ISP", ...
	InfoType *string `json:"info_type,omitempty"`
	// PolicyGeneral is the peering policy: "Open", "Selective", "Restrictive", ...
	PolicyGeneral *string `json:"policy_general,omitempty"`
	// InfoScope is the geographic scope: "Global", "Regional", ...
	InfoScope *string `json:"info_scope,omitempty"`

	InfoPrefixes4 *int64 `json:"info_prefixes4,omitempty"`
	InfoPrefixes6 *int64 `json:"info_prefixes6,omitempty"`
	IXCount       *int64 `json:"ix_count,omitempty"`
	FacCount      *int64 `json:"fac_count,omitempty"`
}

// Snapshot is an immutable, ordered view of the whole dataset. A refresh
// builds a new Snapshot and swaps it in; nobody mutates Networks after the
// snapshot has been handed to the store.
type Snapshot struct {
	Networks []Network

	// Generation is assigned by the store on Replace; 0 means never installed.
	Generation uint64
	// LoadedAt is when the records were read from the cache file.
	LoadedAt time.Time
	// Source is the path the records were loaded from.
	Source string
}

// NewSnapshot wraps networks in a Snapshot stamped with loadedAt.
// The caller must not modify networks afterwards.
func NewSnapshot(networks []Network, source string, loadedAt time.Time) *Snapshot {
	if networks == nil {
		networks = []Network{}
	}
	return &Snapshot{
		Networks: networks,
		LoadedAt: loadedAt,
		Source:   source,
	}
}

// Len returns the number of records; a nil snapshot has none.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Networks)
}

// Stats is the dashboard aggregate derived from one Snapshot on demand.
type Stats struct {
	TotalNetworks int            `json:"total_networks"`
	NetworkTypes  map[string]int `json:"network_types"`
	PolicyTypes   map[string]int `json:"policy_types"`
	Scopes        map[string]int `json:"scopes"`
}

// String returns a pointer to s. Handy for building records in code and tests.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int64) *int64 { return &n }
