package query

import (
	"strings"

	"github.com/netviz/netviz/pkg/types"
)

// MaxSearchName bounds the name criterion, in characters.
const MaxSearchName = 100

// SearchParams are the criteria for Search. Nil means "not given".
type SearchParams struct {
	ASN  *int64
	Name *string
}

// Search returns every network whose ASN equals p.ASN or whose name contains
// p.Name case-insensitively. Without any criteria it returns nothing.
func Search(snap *types.Snapshot, p SearchParams) []types.Network {
	out := []types.Network{}
	var name string
	hasName := p.Name != nil && *p.Name != ""
	if hasName {
		name = strings.ToLower(TruncateChars(*p.Name, MaxSearchName, ""))
	}
	if (p.ASN == nil && !hasName) || snap.Len() == 0 {
		return out
	}

	for _, n := range snap.Networks {
		byASN := p.ASN != nil && n.ASN == *p.ASN
		byName := hasName && strings.Contains(strings.ToLower(n.Name), name)
		if byASN || byName {
			out = append(out, n)
		}
	}
	return out
}

// TruncateChars shortens s to at most max characters (runes, not bytes) and
// appends suffix when anything was cut.
func TruncateChars(s string, max int, suffix string) string {
	if max < 0 {
		max = 0
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i] + suffix
		}
		count++
	}
	return s
}
