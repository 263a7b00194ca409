package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/netviz/netviz/pkg/types"
)

// Pagination defaults.
const (
	DefaultPage    = 1
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// ListParams selects and paginates networks. Empty strings disable a filter.
type ListParams struct {
	// Q is a case-insensitive substring matched against name, ASN and aka.
	Q string
	// Type, Policy and Status are case-insensitive exact matches against
	// info_type, policy_general and status.
	Type   string
	Policy string
	Status string

	// Page is 1-based; values below 1 become 1.
	Page int
	// PerPage defaults to 25 and is clamped to [1, 100]; 0 means default.
	PerPage int
}

// Page is one page of list results.
type Page struct {
	Networks   []types.Network `json:"networks"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total_networks"`
}

// List filters snap with every filter in p (conjunctively, preserving
// snapshot order) and returns the requested page. A page past the end is
// clamped to the last page; an empty result yields an empty page.
func List(snap *types.Snapshot, p ListParams) Page {
	page, perPage := normalizePaging(p.Page, p.PerPage)
	matches := filter(snap, p)

	total := len(matches)
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := satMul(page-1, perPage)
	end := satAdd(start, perPage)
	if end > total {
		end = total
	}

	out := Page{
		Networks:   []types.Network{},
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Total:      total,
	}
	if start < total {
		out.Networks = matches[start:end]
	}
	return out
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case perPage == 0:
		perPage = DefaultPerPage
	case perPage < 1:
		perPage = 1
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return page, perPage
}

func filter(snap *types.Snapshot, p ListParams) []types.Network {
	if snap.Len() == 0 {
		return nil
	}
	q := strings.ToLower(p.Q)
	out := make([]types.Network, 0, len(snap.Networks))
	for _, n := range snap.Networks {
		if q != "" && !matchesText(n, q) {
			continue
		}
		if p.Type != "" && !equalFold(n.InfoType, p.Type) {
			continue
		}
		if p.Policy != "" && !equalFold(n.PolicyGeneral, p.Policy) {
			continue
		}
		if p.Status != "" && !equalFold(n.Status, p.Status) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// matchesText reports whether lowered q occurs in the name, the decimal ASN
// or the aka of n.
func matchesText(n types.Network, q string) bool {
	if strings.Contains(strings.ToLower(n.Name), q) {
		return true
	}
	if strings.Contains(strconv.FormatInt(n.ASN, 10), q) {
		return true
	}
	return n.Aka != nil && strings.Contains(strings.ToLower(*n.Aka), q)
}

// equalFold treats an absent field as never matching.
func equalFold(field *string, want string) bool {
	return field != nil && strings.EqualFold(*field, want)
}

func satMul(a, b int) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

func satAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Recent returns the first n networks of snap in snapshot order.
func Recent(snap *types.Snapshot, n int) []types.Network {
	if n <= 0 || snap.Len() == 0 {
		return []types.Network{}
	}
	if n > len(snap.Networks) {
		n = len(snap.Networks)
	}
	out := make([]types.Network, n)
	copy(out, snap.Networks[:n])
	return out
}
