package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryNormalizeEquivalentForms(t *testing.T) {
	base := Query{Term: "oak beam", Sort: SortRecency}

	variants := []Query{
		{Term: "oak beam"},
		{Term: "  oak beam  "},
		{Term: "oak beam", Category: CategoryRef{ID: "all"}},
		{Term: "oak beam", Category: CategoryRef{ID: "All"}, Sort: SortRecency},
		{Term: "oak beam", Category: CategoryRef{Name: "ALL"}},
	}
	for _, v := range variants {
		assert.Equal(t, base.Normalize(), v.Normalize())
		assert.Equal(t, base.Key(), v.Key())
	}
}

func TestQueryNormalizeCategoryIDWinsOverName(t *testing.T) {
	q := Query{Category: CategoryRef{ID: "cat-1", Name: "Timber"}}.Normalize()
	assert.Equal(t, "cat-1", q.Category.ID)
	assert.Empty(t, q.Category.Name)
}

func TestQueryNormalizeClearsUserIDForAllScope(t *testing.T) {
	q := Query{Scope: Scope{Kind: ScopeAll, UserID: "u-1"}}.Normalize()
	assert.Empty(t, q.Scope.UserID)
}

func TestQueryNormalizeDistinctQueriesStayDistinct(t *testing.T) {
	a := Query{Term: "oak"}.Normalize()
	b := Query{Term: "pine"}.Normalize()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.Key(), b.Key())

	owner := Query{Scope: Scope{Kind: ScopeByOwner, UserID: "u-1"}}.Normalize()
	all := Query{}.Normalize()
	assert.NotEqual(t, owner, all)
}

func listingFixture(id string) *Listing {
	return &Listing{
		ID:           id,
		OwnerID:      "owner-1",
		CategoryID:   "cat-1",
		CategoryName: "Timber",
		Title:        "Oak beam 3m",
		Description:  "Reclaimed oak beam, solid",
		Price:        45,
		Location:     "Leeds",
		Status:       StatusAvailable,
		CreatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestQueryAdmits(t *testing.T) {
	l := listingFixture("lst-1")

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query admits available", Query{}, true},
		{"term matches title", Query{Term: "oak"}, true},
		{"term matches description case-insensitively", Query{Term: "RECLAIMED"}, true},
		{"term mismatch", Query{Term: "scaffold"}, false},
		{"category id match", Query{Category: CategoryRef{ID: "cat-1"}}, true},
		{"category id mismatch", Query{Category: CategoryRef{ID: "cat-2"}}, false},
		{"category name match", Query{Category: CategoryRef{Name: "timber"}}, true},
		{"location substring", Query{Location: "leed"}, true},
		{"price inside range", Query{MinPrice: 10, MaxPrice: 50}, true},
		{"price above max", Query{MaxPrice: 40}, false},
		{"price below min", Query{MinPrice: 50}, false},
		{"zero bounds mean unbounded", Query{MinPrice: 0, MaxPrice: 0}, true},
		{"owner scope match", Query{Scope: Scope{Kind: ScopeByOwner, UserID: "owner-1"}}, true},
		{"owner scope mismatch", Query{Scope: Scope{Kind: ScopeByOwner, UserID: "owner-2"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Admits(l, nil))
		})
	}
}

func TestQueryAdmitsStatusVisibility(t *testing.T) {
	suspended := listingFixture("lst-1")
	suspended.Status = StatusSuspended

	assert.False(t, Query{}.Admits(suspended, nil))
	assert.True(t, Query{Scope: Scope{Kind: ScopeByOwner, UserID: "owner-1"}}.Admits(suspended, nil))

	pending := listingFixture("lst-2")
	pending.Status = StatusPending
	assert.False(t, Query{}.Admits(pending, nil))
	assert.True(t, Query{Scope: Scope{Kind: ScopeByOwner, UserID: "owner-1"}}.Admits(pending, nil))
}

func TestQueryAdmitsFavoritesScope(t *testing.T) {
	l := listingFixture("lst-1")
	q := Query{Scope: Scope{Kind: ScopeFavoritesOf, UserID: "u-1"}}

	yes := func(userID, listingID string) bool { return true }
	no := func(userID, listingID string) bool { return false }

	assert.True(t, q.Admits(l, yes))
	assert.False(t, q.Admits(l, no))
	assert.False(t, q.Admits(l, nil))

	suspended := listingFixture("lst-2")
	suspended.Status = StatusSuspended
	assert.False(t, q.Admits(suspended, yes))
}

func TestQueryLessRecency(t *testing.T) {
	q := Query{Sort: SortRecency}

	older := listingFixture("lst-a")
	newer := listingFixture("lst-b")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	assert.True(t, q.Less(newer, older))
	assert.False(t, q.Less(older, newer))

	boosted := listingFixture("lst-c")
	boosted.Boosted = true
	assert.True(t, q.Less(boosted, newer))

	// Equal timestamps fall back to id order.
	twin := listingFixture("lst-z")
	assert.True(t, q.Less(older, twin))
}

func TestQueryLessPrice(t *testing.T) {
	cheap := listingFixture("lst-a")
	cheap.Price = 10
	dear := listingFixture("lst-b")
	dear.Price = 99

	assert.True(t, Query{Sort: SortPriceAsc}.Less(cheap, dear))
	assert.True(t, Query{Sort: SortPriceDesc}.Less(dear, cheap))
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusAvailable, ParseStatus("available"))
	assert.Equal(t, StatusAvailable, ParseStatus("active"))
	assert.Equal(t, StatusSuspended, ParseStatus("removed"))
	assert.Equal(t, StatusSuspended, ParseStatus("inactive"))
	assert.Equal(t, StatusPending, ParseStatus("pending"))
	assert.Equal(t, StatusPending, ParseStatus("garbage"))
}
