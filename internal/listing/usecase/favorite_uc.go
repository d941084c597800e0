package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
	"golang.org/x/sync/singleflight"
)

type FavoriteUsecase struct {
	repo      domain.FavoriteRepository
	publisher domain.Publisher
	catalog   *CatalogUsecase
	logger    *logger.Logger
	timeout   time.Duration

	// toggles serializes per-(user,listing) toggles: a second call arriving
	// while one is in flight joins it and observes its result instead of
	// racing a second remote write.
	toggles singleflight.Group
}

func NewFavoriteUsecase(
	repo domain.FavoriteRepository,
	publisher domain.Publisher,
	catalog *CatalogUsecase,
	timeout time.Duration,
	log *logger.Logger,
) *FavoriteUsecase {
	return &FavoriteUsecase{
		repo:      repo,
		publisher: publisher,
		catalog:   catalog,
		logger:    log,
		timeout:   timeout,
	}
}

// ToggleFavorite flips the favorite state for (user, listing) and returns the
// new state. Toggling twice sequentially restores the original state; a
// concurrent double-tap results in exactly one net flip.
func (uc *FavoriteUsecase) ToggleFavorite(ctx context.Context, userID, listingID string) (bool, error) {
	key := userID + "\x00" + listingID
	v, err, _ := uc.toggles.Do(key, func() (interface{}, error) {
		return uc.toggle(ctx, userID, listingID)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (uc *FavoriteUsecase) toggle(ctx context.Context, userID, listingID string) (bool, error) {
	rctx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	exists, err := uc.repo.Exists(rctx, userID, listingID)
	if err != nil {
		return false, err
	}

	var favorited bool
	if exists {
		err = uc.repo.Remove(rctx, userID, listingID)
		if err != nil && !errors.Is(err, domain.ErrFavoriteNotFound) {
			uc.logger.Error("FavoriteUsecase.toggle: remove failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
			return false, err
		}
		favorited = false
	} else {
		err = uc.repo.Add(rctx, &domain.Favorite{UserID: userID, ListingID: listingID})
		if err != nil {
			// A duplicate-key race means someone else just favorited it;
			// the desired end state holds either way.
			if !errors.Is(err, domain.ErrDuplicateFavorite) {
				uc.logger.Error("FavoriteUsecase.toggle: add failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
				return false, err
			}
		}
		favorited = true
	}

	uc.catalog.applyFavoriteChange(userID)
	uc.publishChange(ctx, userID, listingID, favorited)
	return favorited, nil
}

func (uc *FavoriteUsecase) publishChange(ctx context.Context, userID, listingID string, favorited bool) {
	if uc.publisher == nil {
		return
	}
	op := domain.OpDelete
	if favorited {
		op = domain.OpInsert
	}
	event := domain.ChangeEvent{
		Table:   domain.TableFavorites,
		Op:      op,
		ID:      listingID,
		OwnerID: userID,
		At:      time.Now().UTC(),
	}
	if err := uc.publisher.PublishChange(ctx, event); err != nil {
		uc.logger.Warn("FavoriteUsecase.publishChange: publish failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
	}
}
