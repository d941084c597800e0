package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
)

type entryState int

const (
	stateIdle entryState = iota
	stateLoading
	stateFresh
	stateError
)

// viewEntry is one cached query result with its freshness state. The
// generation counter increments whenever a newer fetch begins or the entry is
// invalidated, so a slow response can never overwrite fresher data.
type viewEntry struct {
	query     domain.Query
	listings  []*domain.Listing
	fetchedAt time.Time
	state     entryState
	gen       uint64
	lastUsed  time.Time
}

// viewCache holds the catalog store's query-keyed result sets. It is the only
// shared mutable state in the component; every access goes through the mutex.
//
// ttl == 0 means entries stay fresh until explicitly invalidated, which is the
// policy the write paths and the change feed rely on. A positive ttl bounds
// freshness in time as an extra safety margin.
type viewCache struct {
	mu         sync.Mutex
	entries    map[domain.Query]*viewEntry
	ttl        time.Duration
	maxEntries int
}

const defaultMaxEntries = 100

func newViewCache(ttl time.Duration) *viewCache {
	return &viewCache{
		entries:    make(map[domain.Query]*viewEntry),
		ttl:        ttl,
		maxEntries: defaultMaxEntries,
	}
}

// freshResult returns a copy of the cached sequence when the entry is fresh.
func (c *viewCache) freshResult(q domain.Query) ([]*domain.Listing, bool) {
	q = q.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[q]
	if !ok || entry.state != stateFresh {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	entry.lastUsed = time.Now()
	return copyListings(entry.listings), true
}

// beginFetch transitions the entry to Loading and hands back the generation
// token the fetch must present to install its result.
func (c *viewCache) beginFetch(q domain.Query) uint64 {
	q = q.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[q]
	if !ok {
		c.evictIfFull()
		entry = &viewEntry{query: q}
		c.entries[q] = entry
	}
	entry.gen++
	entry.state = stateLoading
	entry.lastUsed = time.Now()
	return entry.gen
}

// complete installs a fetch result. A result whose generation is no longer
// current is discarded: a newer fetch for the same key has since started.
func (c *viewCache) complete(q domain.Query, gen uint64, listings []*domain.Listing) {
	q = q.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[q]
	if !ok || entry.gen != gen {
		return
	}
	entry.listings = copyListings(listings)
	entry.fetchedAt = time.Now()
	entry.state = stateFresh
	entry.lastUsed = entry.fetchedAt
}

// fail marks the entry Error but keeps any previously fetched sequence, so a
// failed refresh never destroys a usable cached view.
func (c *viewCache) fail(q domain.Query, gen uint64) {
	q = q.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[q]
	if !ok || entry.gen != gen {
		return
	}
	entry.state = stateError
}

// insert optimistically adds a just-created listing to every fresh entry whose
// predicate admits it. No entry leaves the Fresh state, so the next read needs
// no remote round-trip. FavoritesOf entries never admit a brand-new listing:
// nobody can have favorited it yet.
func (c *viewCache) insert(l *domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if entry.state != stateFresh {
			continue
		}
		if entry.query.Scope.Kind == domain.ScopeFavoritesOf {
			continue
		}
		if !entry.query.Admits(l, nil) {
			continue
		}
		entry.listings = insertSorted(entry.listings, cloneListing(l), entry.query)
	}
}

// patch reconciles an updated listing into every entry that currently holds
// it: patched in place while it still matches the entry's predicate, removed
// once it no longer does (a status change hiding it from a public view, a
// price edit moving it out of a bounded range). Entries that do not hold the
// listing but would now admit it are invalidated so their next read refetches.
func (c *viewCache) patch(l *domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		idx := indexOf(entry.listings, l.ID)
		if idx >= 0 {
			// Membership in a favorites view is governed by the favorite
			// relation, which a listing edit does not touch.
			contained := func(string, string) bool { return true }
			if entry.query.Admits(l, contained) {
				entry.listings[idx] = cloneListing(l)
				sortListings(entry.listings, entry.query)
			} else {
				entry.listings = append(entry.listings[:idx], entry.listings[idx+1:]...)
			}
			continue
		}
		if entry.state == stateFresh && entry.query.Scope.Kind != domain.ScopeFavoritesOf && entry.query.Admits(l, nil) {
			entry.state = stateIdle
			entry.gen++
		}
	}
}

// remove drops a deleted listing from every entry that contains it.
func (c *viewCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if idx := indexOf(entry.listings, id); idx >= 0 {
			entry.listings = append(entry.listings[:idx], entry.listings[idx+1:]...)
		}
	}
}

// invalidateWhere marks matching entries stale. Their cached sequences remain
// readable to error-path fallbacks but the next fetch goes remote.
func (c *viewCache) invalidateWhere(pred func(domain.Query) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for q, entry := range c.entries {
		if pred(q) {
			entry.state = stateIdle
			entry.gen++
		}
	}
}

// invalidateForListing applies a remote change notification. Entries
// refreshed after the source timestamp already reflect the change
// (last write wins); older entries that hold the listing, or that could
// admit it, go stale.
func (c *viewCache) invalidateForListing(id, ownerID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for q, entry := range c.entries {
		if entry.state == stateFresh && !at.IsZero() && entry.fetchedAt.After(at) {
			continue
		}
		affected := indexOf(entry.listings, id) >= 0 ||
			q.Scope.Kind == domain.ScopeAll ||
			(q.Scope.Kind == domain.ScopeByOwner && ownerID != "" && q.Scope.UserID == ownerID)
		if affected {
			entry.state = stateIdle
			entry.gen++
		}
	}
}

// invalidateUserScoped drops every view that is private to the given user.
// Used on sign-out and on favorite changes.
func (c *viewCache) invalidateUserScoped(userID string, kinds ...domain.ScopeKind) {
	c.invalidateWhere(func(q domain.Query) bool {
		if q.Scope.UserID != userID {
			return false
		}
		for _, k := range kinds {
			if q.Scope.Kind == k {
				return true
			}
		}
		return false
	})
}

func (c *viewCache) evictIfFull() {
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey domain.Query
	var oldest time.Time
	first := true
	for q, entry := range c.entries {
		if first || entry.lastUsed.Before(oldest) {
			oldestKey, oldest, first = q, entry.lastUsed, false
		}
	}
	delete(c.entries, oldestKey)
}

func indexOf(listings []*domain.Listing, id string) int {
	for i, l := range listings {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func copyListings(in []*domain.Listing) []*domain.Listing {
	out := make([]*domain.Listing, len(in))
	copy(out, in)
	return out
}

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	c.Photos = append([]string(nil), l.Photos...)
	return &c
}

func sortListings(listings []*domain.Listing, q domain.Query) {
	sort.SliceStable(listings, func(i, j int) bool {
		return q.Less(listings[i], listings[j])
	})
}

func insertSorted(listings []*domain.Listing, l *domain.Listing, q domain.Query) []*domain.Listing {
	idx := sort.Search(len(listings), func(i int) bool {
		return q.Less(l, listings[i])
	})
	listings = append(listings, nil)
	copy(listings[idx+1:], listings[idx:])
	listings[idx] = l
	return listings
}
