package query

import (
	"sort"

	"github.com/netviz/netviz/pkg/types"
)

// Field names an optional text attribute that can be grouped on.
type Field int

const (
	FieldType Field = iota
	FieldPolicy
	FieldScope
	FieldStatus
)

func (f Field) String() string {
	switch f {
	case FieldType:
		return "info_type"
	case FieldPolicy:
		return "policy_general"
	case FieldScope:
		return "info_scope"
	case FieldStatus:
		return "status"
	default:
		return "unknown"
	}
}

func (f Field) value(n *types.Network) *string {
	switch f {
	case FieldType:
		return n.InfoType
	case FieldPolicy:
		return n.PolicyGeneral
	case FieldScope:
		return n.InfoScope
	case FieldStatus:
		return n.Status
	default:
		return nil
	}
}

// CountBy counts networks per exact value of f. Networks without f are not
// counted anywhere. Map iteration order is unspecified; use SortedCounts when
// a stable order matters.
func CountBy(snap *types.Snapshot, f Field) map[string]int {
	counts := make(map[string]int)
	if snap.Len() == 0 {
		return counts
	}
	for i := range snap.Networks {
		if v := f.value(&snap.Networks[i]); v != nil {
			counts[*v]++
		}
	}
	return counts
}

// BuildStats computes the dashboard aggregate in one pass over snap.
func BuildStats(snap *types.Snapshot) types.Stats {
	st := types.Stats{
		TotalNetworks: snap.Len(),
		NetworkTypes:  make(map[string]int),
		PolicyTypes:   make(map[string]int),
		Scopes:        make(map[string]int),
	}
	if snap.Len() == 0 {
		return st
	}
	for i := range snap.Networks {
		n := &snap.Networks[i]
		if n.InfoType != nil {
			st.NetworkTypes[*n.InfoType]++
		}
		if n.PolicyGeneral != nil {
			st.PolicyTypes[*n.PolicyGeneral]++
		}
		if n.InfoScope != nil {
			st.Scopes[*n.InfoScope]++
		}
	}
	return st
}

// Count is one bucket of a group count.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SortedCounts orders counts by count descending, then label ascending.
func SortedCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Series is a group count split into aligned label and value slices, the
// shape chart libraries consume.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// SeriesOf converts counts to a Series in SortedCounts order.
func SeriesOf(counts map[string]int) Series {
	sorted := SortedCounts(counts)
	s := Series{Labels: make([]string, len(sorted)), Data: make([]int, len(sorted))}
	for i, c := range sorted {
		s.Labels[i] = c.Label
		s.Data[i] = c.Count
	}
	return s
}
