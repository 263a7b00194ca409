package query

import "github.com/netviz/netviz/pkg/types"

// Limits for the prefix distribution chart.
const (
	PrefixDistributionLimit = 15
	ChartNameLimit          = 30
	ellipsis                = "..."
)

// Metric selects an optional numeric attribute of a network.
type Metric func(n *types.Network) *int64

// Metrics used by the built-in projections.
var (
	MetricPrefixes4 Metric = func(n *types.Network) *int64 { return n.InfoPrefixes4 }
	MetricPrefixes6 Metric = func(n *types.Network) *int64 { return n.InfoPrefixes6 }
	MetricIXCount   Metric = func(n *types.Network) *int64 { return n.IXCount }
	MetricFacCount  Metric = func(n *types.Network) *int64 { return n.FacCount }
)

// PairSeries holds three aligned slices: index i of each describes the same
// network.
type PairSeries struct {
	Names []string
	A     []int64
	B     []int64
}

// FirstPairs takes the first limit networks, in snapshot order, that carry
// both a and b. It does not rank by value. Names are truncated to
// ChartNameLimit characters.
func FirstPairs(snap *types.Snapshot, a, b Metric, limit int) PairSeries {
	ps := PairSeries{Names: []string{}, A: []int64{}, B: []int64{}}
	if snap.Len() == 0 || limit <= 0 {
		return ps
	}
	for i := range snap.Networks {
		if len(ps.Names) == limit {
			break
		}
		n := &snap.Networks[i]
		va, vb := a(n), b(n)
		if va == nil || vb == nil {
			continue
		}
		ps.Names = append(ps.Names, TruncateChars(n.Name, ChartNameLimit, ellipsis))
		ps.A = append(ps.A, *va)
		ps.B = append(ps.B, *vb)
	}
	return ps
}

// PrefixDistribution is the IPv4/IPv6 prefix chart payload.
type PrefixDistribution struct {
	Networks []string `json:"networks"`
	IPv4     []int64  `json:"ipv4"`
	IPv6     []int64  `json:"ipv6"`
}

// Prefixes returns the first PrefixDistributionLimit networks with both
// prefix counts present.
func Prefixes(snap *types.Snapshot) PrefixDistribution {
	ps := FirstPairs(snap, MetricPrefixes4, MetricPrefixes6, PrefixDistributionLimit)
	return PrefixDistribution{Networks: ps.Names, IPv4: ps.A, IPv6: ps.B}
}

// Point is one scatter plot sample.
type Point struct {
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
	Label string `json:"label"`
}

// Scatter emits one point per network carrying both x and y, in snapshot
// order, without limit.
func Scatter(snap *types.Snapshot, x, y Metric) []Point {
	out := []Point{}
	if snap.Len() == 0 {
		return out
	}
	for i := range snap.Networks {
		n := &snap.Networks[i]
		vx, vy := x(n), y(n)
		if vx == nil || vy == nil {
			continue
		}
		out = append(out, Point{X: *vx, Y: *vy, Label: n.Name})
	}
	return out
}

// IXFacilityCorrelation plots exchange count against facility count.
func IXFacilityCorrelation(snap *types.Snapshot) []Point {
	return Scatter(snap, MetricIXCount, MetricFacCount)
}
