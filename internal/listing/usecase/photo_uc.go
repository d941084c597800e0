package usecase

import (
	"context"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

type PhotoUsecase struct {
	storage   domain.Storage
	repo      domain.ListingRepository
	publisher domain.Publisher
	catalog   *CatalogUsecase
	logger    *logger.Logger
	timeout   time.Duration
}

func NewPhotoUsecase(
	storage domain.Storage,
	repo domain.ListingRepository,
	publisher domain.Publisher,
	catalog *CatalogUsecase,
	timeout time.Duration,
	log *logger.Logger,
) *PhotoUsecase {
	return &PhotoUsecase{
		storage:   storage,
		repo:      repo,
		publisher: publisher,
		catalog:   catalog,
		logger:    log,
		timeout:   timeout,
	}
}

// UploadPhoto uploads the blob first, then patches the listing's photo set.
// Only the owner may attach photos.
func (uc *PhotoUsecase) UploadPhoto(ctx context.Context, listingID, actorID, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &domain.ValidationError{Field: "image", Reason: "image data is empty"}
	}

	rctx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	listing, err := uc.repo.FindByID(rctx, listingID)
	if err != nil {
		return "", err
	}
	if listing.OwnerID != actorID {
		uc.logger.Warn("PhotoUsecase.UploadPhoto: forbidden", "listing_id", listingID, "owner_id", listing.OwnerID, "actor_id", actorID)
		return "", domain.ErrForbidden
	}

	url, err := uc.storage.Upload(rctx, fileName, data)
	if err != nil {
		return "", err
	}

	listing.Photos = append(listing.Photos, url)
	if err := uc.repo.Update(rctx, listing); err != nil {
		uc.logger.Warn("PhotoUsecase.UploadPhoto: record update failed after upload, blob orphaned", "listing_id", listingID, "blob", url, "error", err.Error())
		return "", err
	}

	uc.catalog.applyUpdate(ctx, listing)
	if uc.publisher != nil {
		event := domain.ChangeEvent{
			Table:   domain.TableListings,
			Op:      domain.OpUpdate,
			ID:      listing.ID,
			OwnerID: listing.OwnerID,
			At:      time.Now().UTC(),
		}
		if err := uc.publisher.PublishChange(ctx, event); err != nil {
			uc.logger.Warn("PhotoUsecase.UploadPhoto: publish failed", "listing_id", listingID, "error", err.Error())
		}
	}
	return url, nil
}
