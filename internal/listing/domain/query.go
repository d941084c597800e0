package domain

import (
	"fmt"
	"strings"
)

// CategoryRef names a category either by stable id or by legacy display name.
// Both forms occur in stored data, so the query translator must accept either.
type CategoryRef struct {
	ID   string
	Name string
}

func (c CategoryRef) IsZero() bool { return c.ID == "" && c.Name == "" }

type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeByOwner
	ScopeFavoritesOf
)

type Scope struct {
	Kind   ScopeKind
	UserID string
}

type SortOrder string

const (
	// SortRecency orders boosted listings first, then newest first,
	// ties broken by id ascending.
	SortRecency   SortOrder = "recency"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// Query is an immutable description of a requested listing view. After
// Normalize it is comparable by value and serves as the cache key: two
// queries that mean the same thing always normalize to the same value.
//
// Zero price bounds mean "no bound"; listings never have negative prices.
type Query struct {
	Term     string
	Category CategoryRef
	Location string
	MinPrice float64
	MaxPrice float64
	Scope    Scope
	Sort     SortOrder
}

// AllCategoriesSentinel is the pseudo-category the UI sends to mean
// "no category filter".
const AllCategoriesSentinel = "all"

// Normalize folds semantically identical inputs onto one representation.
// A whitespace-only term, the "All" pseudo-category and an unset sort all
// collapse to their canonical zero forms.
func (q Query) Normalize() Query {
	q.Term = strings.TrimSpace(q.Term)
	q.Location = strings.TrimSpace(q.Location)
	q.Category.ID = strings.TrimSpace(q.Category.ID)
	q.Category.Name = strings.TrimSpace(q.Category.Name)
	if strings.EqualFold(q.Category.ID, AllCategoriesSentinel) {
		q.Category.ID = ""
	}
	if strings.EqualFold(q.Category.Name, AllCategoriesSentinel) {
		q.Category.Name = ""
	}
	// An id reference wins over a stale display name.
	if q.Category.ID != "" {
		q.Category.Name = ""
	}
	if q.MinPrice < 0 {
		q.MinPrice = 0
	}
	if q.MaxPrice < 0 {
		q.MaxPrice = 0
	}
	if q.Sort == "" {
		q.Sort = SortRecency
	}
	if q.Scope.Kind == ScopeAll {
		q.Scope.UserID = ""
	}
	return q
}

// Key is a stable string form of the normalized query, used for logging and
// for joining duplicate in-flight fetches.
func (q Query) Key() string {
	n := q.Normalize()
	return fmt.Sprintf("t=%s|cid=%s|cname=%s|loc=%s|min=%g|max=%g|scope=%d:%s|sort=%s",
		n.Term, n.Category.ID, n.Category.Name, n.Location, n.MinPrice, n.MaxPrice,
		n.Scope.Kind, n.Scope.UserID, n.Sort)
}

// Admits reports whether a listing belongs in this query's result set.
// It mirrors the repository-side predicate so the cache can decide, without a
// refetch, whether a patched listing still matches a cached view.
//
// Suspended listings are visible only in owner-scoped views; pending ones are
// hidden from All and FavoritesOf scopes as well.
func (q Query) Admits(l *Listing, favoritedBy func(userID, listingID string) bool) bool {
	n := q.Normalize()
	switch n.Scope.Kind {
	case ScopeByOwner:
		if l.OwnerID != n.Scope.UserID {
			return false
		}
	case ScopeFavoritesOf:
		if l.Status != StatusAvailable {
			return false
		}
		if favoritedBy == nil || !favoritedBy(n.Scope.UserID, l.ID) {
			return false
		}
	default:
		if l.Status != StatusAvailable {
			return false
		}
	}
	if n.Term != "" {
		t := strings.ToLower(n.Term)
		if !strings.Contains(strings.ToLower(l.Title), t) &&
			!strings.Contains(strings.ToLower(l.Description), t) {
			return false
		}
	}
	if n.Category.ID != "" && l.CategoryID != n.Category.ID {
		return false
	}
	if n.Category.Name != "" && !strings.EqualFold(l.CategoryName, n.Category.Name) {
		return false
	}
	if n.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(n.Location)) {
		return false
	}
	if n.MinPrice > 0 && l.Price < n.MinPrice {
		return false
	}
	if n.MaxPrice > 0 && l.Price > n.MaxPrice {
		return false
	}
	return true
}

// Less is the total order for query results. Boosted listings sort first,
// then newest first; id ascending breaks ties since it is the only field
// guaranteed stable and totally ordered.
func (q Query) Less(a, b *Listing) bool {
	switch q.Sort {
	case SortPriceAsc:
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case SortPriceDesc:
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	default:
		if a.Boosted != b.Boosted {
			return a.Boosted
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}
