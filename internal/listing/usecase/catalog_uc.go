package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

// ByIDCache is the shared single-listing cache (Redis in production).
// A nil ByIDCache is valid; lookups then always go to the repository.
type ByIDCache interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	SetListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id string) error
}

// CatalogUsecase is the read side of the catalog store: it serves query
// results out of the view cache, translates misses into repository queries,
// and keeps the cache consistent with local writes and the remote change
// feed. Mutation usecases reconcile through the apply* methods.
type CatalogUsecase struct {
	repo      domain.ListingRepository
	favorites domain.FavoriteRepository
	catRepo   domain.CategoryRepository
	byID      ByIDCache
	views     *viewCache
	logger    *logger.Logger
	timeout   time.Duration

	catMu      sync.Mutex
	categories []*domain.Category
}

func NewCatalogUsecase(
	repo domain.ListingRepository,
	favorites domain.FavoriteRepository,
	catRepo domain.CategoryRepository,
	byID ByIDCache,
	cacheTTL time.Duration,
	timeout time.Duration,
	log *logger.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		repo:      repo,
		favorites: favorites,
		catRepo:   catRepo,
		byID:      byID,
		views:     newViewCache(cacheTTL),
		logger:    log,
		timeout:   timeout,
	}
}

func (c *CatalogUsecase) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Fetch returns the listing sequence for a query, served from cache when a
// fresh entry exists for an equal (normalized) query. On remote failure the
// entry transitions to Error, any previously fetched sequence is preserved,
// and the caller gets an empty sequence plus the error so it can retry.
func (c *CatalogUsecase) Fetch(ctx context.Context, q domain.Query) ([]*domain.Listing, error) {
	q = q.Normalize()

	if cached, ok := c.views.freshResult(q); ok {
		return cached, nil
	}

	gen := c.views.beginFetch(q)

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()

	listings, err := c.query(rctx, q)
	if err != nil {
		c.views.fail(q, gen)
		c.logger.Warn("CatalogUsecase.Fetch: remote query failed", "query_key", q.Key(), "error", err.Error())
		return []*domain.Listing{}, err
	}

	sortListings(listings, q)
	c.views.complete(q, gen, listings)
	return listings, nil
}

func (c *CatalogUsecase) query(ctx context.Context, q domain.Query) ([]*domain.Listing, error) {
	if q.Scope.Kind != domain.ScopeFavoritesOf {
		return c.repo.FindByQuery(ctx, q)
	}

	// Favorites scope joins through the favorites relation. Dangling
	// favorites (listing since deleted) simply drop out of the id lookup.
	favs, err := c.favorites.FindByUserID(ctx, q.Scope.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ListingID)
	}
	listings, err := c.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	favorited := func(string, string) bool { return true }
	out := make([]*domain.Listing, 0, len(listings))
	for _, l := range listings {
		if q.Admits(l, favorited) {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetByID is the single-listing view, read-through via the shared cache.
func (c *CatalogUsecase) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()

	if c.byID != nil {
		if cached, err := c.byID.GetListing(rctx, id); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			c.logger.Debug("CatalogUsecase.GetByID: cache read failed, falling through", "listing_id", id, "error", err.Error())
		}
	}

	listing, err := c.repo.FindByID(rctx, id)
	if err != nil {
		return nil, err
	}
	if c.byID != nil {
		if err := c.byID.SetListing(rctx, listing); err != nil {
			c.logger.Debug("CatalogUsecase.GetByID: cache write failed", "listing_id", id, "error", err.Error())
		}
	}
	return listing, nil
}

// Categories is fetched once and memoized for the process lifetime; the
// category table is read-mostly and treated as immutable per session.
func (c *CatalogUsecase) Categories(ctx context.Context) ([]*domain.Category, error) {
	c.catMu.Lock()
	defer c.catMu.Unlock()

	if c.categories != nil {
		return c.categories, nil
	}

	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()

	cats, err := c.catRepo.FindAll(rctx)
	if err != nil {
		return nil, err
	}
	c.categories = cats
	return cats, nil
}

// IsFavorite reports whether the user has favorited the listing.
func (c *CatalogUsecase) IsFavorite(ctx context.Context, userID, listingID string) (bool, error) {
	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()
	return c.favorites.Exists(rctx, userID, listingID)
}

// Stats backs the admin dashboard counters.
func (c *CatalogUsecase) Stats(ctx context.Context) (*domain.Stats, error) {
	rctx, cancel := c.remoteCtx(ctx)
	defer cancel()

	total, err := c.repo.Count(rctx)
	if err != nil {
		return nil, err
	}
	available, err := c.repo.CountByStatus(rctx, domain.StatusAvailable)
	if err != nil {
		return nil, err
	}
	pending, err := c.repo.CountByStatus(rctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	return &domain.Stats{
		TotalListings:     total,
		AvailableListings: available,
		PendingListings:   pending,
	}, nil
}

// ApplyChange feeds one remote change notification into the cache. Local
// writes never pass through here; they reconcile synchronously on the write
// path, and the subscriber filters out this process's own events.
func (c *CatalogUsecase) ApplyChange(event domain.ChangeEvent) {
	switch event.Table {
	case domain.TableListings:
		c.views.invalidateForListing(event.ID, event.OwnerID, event.At)
		if c.byID != nil {
			if err := c.byID.DeleteListing(context.Background(), event.ID); err != nil {
				c.logger.Debug("CatalogUsecase.ApplyChange: cache evict failed", "listing_id", event.ID, "error", err.Error())
			}
		}
	case domain.TableFavorites:
		c.views.invalidateUserScoped(event.OwnerID, domain.ScopeFavoritesOf)
	}
	// Unlock records are never cached here.
}

// HandleSignOut drops every cached view scoped to the signed-out user.
func (c *CatalogUsecase) HandleSignOut(userID string) {
	c.views.invalidateUserScoped(userID, domain.ScopeByOwner, domain.ScopeFavoritesOf)
}

// Write-path reconciliation hooks. Each runs synchronously before the write
// call returns, so a fetch issued after an awaited write observes it.

func (c *CatalogUsecase) applyCreate(l *domain.Listing) {
	c.views.insert(l)
}

func (c *CatalogUsecase) applyUpdate(ctx context.Context, l *domain.Listing) {
	c.views.patch(l)
	if c.byID != nil {
		if err := c.byID.SetListing(ctx, l); err != nil {
			c.logger.Debug("CatalogUsecase.applyUpdate: cache write failed", "listing_id", l.ID, "error", err.Error())
		}
	}
}

func (c *CatalogUsecase) applyDelete(ctx context.Context, id string) {
	c.views.remove(id)
	if c.byID != nil {
		if err := c.byID.DeleteListing(ctx, id); err != nil {
			c.logger.Debug("CatalogUsecase.applyDelete: cache evict failed", "listing_id", id, "error", err.Error())
		}
	}
}

func (c *CatalogUsecase) applyFavoriteChange(userID string) {
	c.views.invalidateUserScoped(userID, domain.ScopeFavoritesOf)
}
