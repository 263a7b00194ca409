package query

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseListParams reads list parameters from a query string. Unparseable
// numbers fall back to defaults; it never fails.
//
// Recognised keys: q, type (or type_), policy, status, page, per_page.
func ParseListParams(v url.Values) ListParams {
	typ := v.Get("type")
	if typ == "" {
		typ = v.Get("type_")
	}
	perPage := atoiOr(v.Get("per_page"), DefaultPerPage)
	if perPage < 1 {
		// An explicit 0 clamps like any other out-of-range size.
		perPage = 1
	}
	return ListParams{
		Q:       v.Get("q"),
		Type:    typ,
		Policy:  v.Get("policy"),
		Status:  v.Get("status"),
		Page:    atoiOr(v.Get("page"), DefaultPage),
		PerPage: perPage,
	}
}

// ParseSearchParams reads search criteria from a query string. An empty or
// unparseable asn is treated as absent; "AS15169" is accepted as 15169.
func ParseSearchParams(v url.Values) SearchParams {
	var p SearchParams
	if raw := strings.TrimSpace(v.Get("asn")); raw != "" {
		raw = strings.TrimPrefix(strings.TrimPrefix(raw, "AS"), "as")
		if asn, err := strconv.ParseInt(raw, 10, 64); err == nil {
			p.ASN = &asn
		}
	}
	if name := v.Get("name"); name != "" {
		p.Name = &name
	}
	return p
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
