package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Defaults(t *testing.T) {
	page := List(numbered(30), ListParams{})

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, 30, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Networks, 25)
	assert.Equal(t, "net-0", page.Networks[0].Name)
}

func TestList_HundredAndOneRecords(t *testing.T) {
	page := List(numbered(101), ListParams{Page: 5, PerPage: 25})

	assert.Equal(t, 5, page.TotalPages)
	assert.Equal(t, 5, page.Page)
	require.Len(t, page.Networks, 1)
	assert.Equal(t, "net-100", page.Networks[0].Name)
}

func TestList_EmptySnapshot(t *testing.T) {
	for _, p := range []int{1, 2, 1000} {
		page := List(numbered(0), ListParams{Page: p})
		assert.Equal(t, 0, page.TotalPages)
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Networks)
		assert.Empty(t, page.Networks)
	}
}

func TestList_NilSnapshot(t *testing.T) {
	page := List(nil, ListParams{})
	assert.Empty(t, page.Networks)
	assert.Equal(t, 0, page.TotalPages)
}

func TestList_PageBeyondEndReturnsLastPage(t *testing.T) {
	page := List(numbered(60), ListParams{Page: 99, PerPage: 25})

	assert.Equal(t, 3, page.Page)
	assert.Equal(t, []string{
		"net-50", "net-51", "net-52", "net-53", "net-54",
		"net-55", "net-56", "net-57", "net-58", "net-59",
	}, names(page.Networks))
}

func TestList_HugePageDoesNotOverflow(t *testing.T) {
	page := List(numbered(0), ListParams{Page: math.MaxInt, PerPage: MaxPerPage})
	assert.Empty(t, page.Networks)

	page = List(numbered(3), ListParams{Page: math.MaxInt, PerPage: MaxPerPage})
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Networks, 3)
}

func TestList_PageFloorAndSizeClamp(t *testing.T) {
	page := List(numbered(300), ListParams{Page: -4, PerPage: 1000})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Len(t, page.Networks, MaxPerPage)

	page = List(numbered(3), ListParams{PerPage: -7})
	assert.Equal(t, 1, page.PerPage)
	assert.Equal(t, 3, page.TotalPages)
}

// Every page size in [1,100] must tile the filtered set exactly once.
func TestList_PagesCoverFilteredSetExactlyOnce(t *testing.T) {
	snap := numbered(137)
	for perPage := 1; perPage <= MaxPerPage; perPage++ {
		first := List(snap, ListParams{Page: 1, PerPage: perPage})
		wantPages := (137 + perPage - 1) / perPage
		require.Equal(t, wantPages, first.TotalPages, "per_page=%d", perPage)

		var seen []string
		for p := 1; p <= first.TotalPages; p++ {
			page := List(snap, ListParams{Page: p, PerPage: perPage})
			require.LessOrEqual(t, len(page.Networks), perPage)
			seen = append(seen, names(page.Networks)...)
		}
		require.Equal(t, names(snap.Networks), seen, "per_page=%d", perPage)
	}
}

func TestList_FreeTextMatchesNameASNAndAka(t *testing.T) {
	snap := snapshotOf(google(), cloudflare(), isp(), bare())

	assert.Equal(t, []string{"Google"}, names(List(snap, ListParams{Q: "google"}).Networks))
	assert.Equal(t, []string{"Cloudflare"}, names(List(snap, ListParams{Q: "1333"}).Networks))
	assert.Equal(t, []string{"Cloudflare"}, names(List(snap, ListParams{Q: "cf"}).Networks))
	assert.Equal(t, []string{"Example Broadband"}, names(List(snap, ListParams{Q: "BAND"}).Networks))
}

func TestList_ExactFiltersAreCaseInsensitive(t *testing.T) {
	snap := snapshotOf(google(), cloudflare(), isp(), bare())

	assert.Equal(t, []string{"Google", "Cloudflare"}, names(List(snap, ListParams{Type: "content"}).Networks))
	assert.Empty(t, List(snap, ListParams{Type: "Content "}).Networks, "trailing space must not match")
	assert.Equal(t, []string{"Cloudflare", "Example Broadband"}, names(List(snap, ListParams{Policy: "OPEN"}).Networks))
	assert.Len(t, List(snap, ListParams{Status: "OK"}).Networks, 3, "record without status never matches")
}

func TestList_FiltersAreConjunctive(t *testing.T) {
	snap := snapshotOf(google(), cloudflare(), isp(), bare())
	p := ListParams{Type: "content", Policy: "open", Q: "o"}

	page := List(snap, p)
	assert.Equal(t, []string{"Cloudflare"}, names(page.Networks))
	for _, n := range page.Networks {
		assert.True(t, equalFold(n.InfoType, p.Type))
		assert.True(t, equalFold(n.PolicyGeneral, p.Policy))
		assert.True(t, matchesText(n, p.Q))
	}
}

func TestRecent(t *testing.T) {
	snap := numbered(12)
	assert.Equal(t, names(snap.Networks[:10]), names(Recent(snap, 10)))
	assert.Len(t, Recent(numbered(3), 10), 3)
	assert.Empty(t, Recent(nil, 10))

	got := Recent(snap, 2)
	got[0].Name = "changed"
	assert.Equal(t, "net-0", snap.Networks[0].Name, "Recent must copy")
}

func TestList_ResultDoesNotAliasSnapshot(t *testing.T) {
	snap := snapshotOf(google(), cloudflare())
	page := List(snap, ListParams{})
	page.Networks[0].Name = "changed"
	assert.Equal(t, "Google", snap.Networks[0].Name)
}
