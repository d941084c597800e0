package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

// ImageUpload is one raw image attached to a create or photo-upload call.
type ImageUpload struct {
	Name string
	Data []byte
}

// ListingUsecase is the write side of the catalog store. Every successful
// mutation reconciles the view cache synchronously before returning, then
// publishes a change event for other instances.
type ListingUsecase struct {
	repo      domain.ListingRepository
	storage   domain.Storage
	publisher domain.Publisher
	users     domain.UserDirectory
	mailer    domain.Mailer
	catalog   *CatalogUsecase
	logger    *logger.Logger
	timeout   time.Duration
}

func NewListingUsecase(
	repo domain.ListingRepository,
	storage domain.Storage,
	publisher domain.Publisher,
	users domain.UserDirectory,
	mailer domain.Mailer,
	catalog *CatalogUsecase,
	timeout time.Duration,
	log *logger.Logger,
) *ListingUsecase {
	return &ListingUsecase{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		users:     users,
		mailer:    mailer,
		catalog:   catalog,
		logger:    log,
		timeout:   timeout,
	}
}

func (uc *ListingUsecase) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.timeout)
}

// validateNew checks constraints in the order the listing form presents its
// fields, so the first failure is deterministic and matches the UI message.
func validateNew(data domain.NewListingData, imageCount int) error {
	if strings.TrimSpace(data.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "please enter a title for your listing"}
	}
	if strings.TrimSpace(data.Description) == "" {
		return &domain.ValidationError{Field: "description", Reason: "please describe your listing"}
	}
	if math.IsNaN(data.Price) || math.IsInf(data.Price, 0) || data.Price < 0 {
		return &domain.ValidationError{Field: "price", Reason: "please enter a valid price"}
	}
	if imageCount == 0 {
		return &domain.ValidationError{Field: "image", Reason: "please add at least one photo"}
	}
	if strings.TrimSpace(data.Contact) == "" {
		return &domain.ValidationError{Field: "contact", Reason: "please provide contact information"}
	}
	return nil
}

// CreateListing validates locally, uploads image bytes first to obtain stable
// references, then writes the record. An orphaned blob after a failed record
// insert is tolerated; it is logged so an operator can sweep it.
func (uc *ListingUsecase) CreateListing(ctx context.Context, data domain.NewListingData, images []ImageUpload) (*domain.Listing, error) {
	if err := validateNew(data, len(images)+len(data.Photos)); err != nil {
		return nil, err
	}

	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()

	photos := append([]string(nil), data.Photos...)
	uploaded := make([]string, 0, len(images))
	for _, img := range images {
		url, err := uc.storage.Upload(rctx, img.Name, img.Data)
		if err != nil {
			uc.logger.Error("ListingUsecase.CreateListing: image upload failed", "owner_id", data.OwnerID, "file", img.Name, "error", err.Error())
			return nil, err
		}
		photos = append(photos, url)
		uploaded = append(uploaded, url)
	}

	listing := &domain.Listing{
		OwnerID:     data.OwnerID,
		CategoryID:  data.CategoryID,
		Title:       strings.TrimSpace(data.Title),
		Description: data.Description,
		Price:       data.Price,
		Location:    data.Location,
		Contact:     data.Contact,
		Photos:      photos,
		Status:      domain.StatusAvailable,
		Boosted:     data.Boosted,
	}

	if err := uc.repo.Create(rctx, listing); err != nil {
		if len(uploaded) > 0 {
			uc.logger.Warn("ListingUsecase.CreateListing: record insert failed after upload, blobs orphaned", "owner_id", data.OwnerID, "blobs", uploaded, "error", err.Error())
		}
		return nil, err
	}

	uc.catalog.applyCreate(listing)
	uc.publish(ctx, domain.TableListings, domain.OpInsert, listing.ID, listing.OwnerID)

	uc.logger.Info("ListingUsecase.CreateListing: listing created", "listing_id", listing.ID, "owner_id", listing.OwnerID)
	return listing, nil
}

// UpdateListing applies an owner's field edits. Authorization failures are
// surfaced distinctly from not-found.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, id, actorID string, patch domain.ListingPatch) (*domain.Listing, error) {
	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()

	listing, err := uc.repo.FindByID(rctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actorID {
		uc.logger.Warn("ListingUsecase.UpdateListing: forbidden", "listing_id", id, "owner_id", listing.OwnerID, "actor_id", actorID)
		return nil, domain.ErrForbidden
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, &domain.ValidationError{Field: "title", Reason: "please enter a title for your listing"}
		}
		listing.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, &domain.ValidationError{Field: "description", Reason: "please describe your listing"}
		}
		listing.Description = *patch.Description
	}
	if patch.Price != nil {
		if math.IsNaN(*patch.Price) || math.IsInf(*patch.Price, 0) || *patch.Price < 0 {
			return nil, &domain.ValidationError{Field: "price", Reason: "please enter a valid price"}
		}
		listing.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		listing.CategoryID = *patch.CategoryID
		listing.CategoryName = ""
	}
	if patch.Location != nil {
		listing.Location = *patch.Location
	}
	if patch.Contact != nil {
		if strings.TrimSpace(*patch.Contact) == "" {
			return nil, &domain.ValidationError{Field: "contact", Reason: "please provide contact information"}
		}
		listing.Contact = *patch.Contact
	}
	if patch.Boosted != nil {
		listing.Boosted = *patch.Boosted
	}

	if err := uc.repo.Update(rctx, listing); err != nil {
		return nil, err
	}

	uc.catalog.applyUpdate(ctx, listing)
	uc.publish(ctx, domain.TableListings, domain.OpUpdate, listing.ID, listing.OwnerID)
	return listing, nil
}

// SetStatus toggles a listing's status. Owners may change their own listings;
// admins may change any. A moderator action on someone else's listing also
// emails the owner, best effort.
func (uc *ListingUsecase) SetStatus(ctx context.Context, id, actorID string, isAdmin bool, status domain.ListingStatus) (*domain.Listing, error) {
	switch status {
	case domain.StatusAvailable, domain.StatusPending, domain.StatusSuspended:
	default:
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()

	listing, err := uc.repo.FindByID(rctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actorID && !isAdmin {
		uc.logger.Warn("ListingUsecase.SetStatus: forbidden", "listing_id", id, "owner_id", listing.OwnerID, "actor_id", actorID)
		return nil, domain.ErrForbidden
	}

	if listing.Status == status {
		return listing, nil
	}
	listing.Status = status

	if err := uc.repo.Update(rctx, listing); err != nil {
		return nil, err
	}

	uc.catalog.applyUpdate(ctx, listing)
	uc.publish(ctx, domain.TableListings, domain.OpUpdate, listing.ID, listing.OwnerID)

	if isAdmin && listing.OwnerID != actorID {
		uc.notifyOwner(ctx, listing)
	}
	uc.logger.Info("ListingUsecase.SetStatus: status changed", "listing_id", id, "status", string(status), "actor_id", actorID)
	return listing, nil
}

func (uc *ListingUsecase) notifyOwner(ctx context.Context, listing *domain.Listing) {
	if uc.users == nil || uc.mailer == nil {
		return
	}
	email, err := uc.users.GetEmailByID(ctx, listing.OwnerID)
	if err != nil {
		uc.logger.Warn("ListingUsecase.notifyOwner: owner email lookup failed", "owner_id", listing.OwnerID, "error", err.Error())
		return
	}
	if err := uc.mailer.SendStatusChanged(email, listing.Title, listing.Status); err != nil {
		uc.logger.Warn("ListingUsecase.notifyOwner: email send failed", "owner_id", listing.OwnerID, "error", err.Error())
	}
}

// DeleteListing removes a listing. It is idempotent: deleting an id that no
// longer exists succeeds.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id, actorID string, isAdmin bool) error {
	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()

	listing, err := uc.repo.FindByID(rctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil
		}
		return err
	}
	if listing.OwnerID != actorID && !isAdmin {
		uc.logger.Warn("ListingUsecase.DeleteListing: forbidden", "listing_id", id, "owner_id", listing.OwnerID, "actor_id", actorID)
		return domain.ErrForbidden
	}

	if err := uc.repo.Delete(rctx, id); err != nil {
		return err
	}

	uc.catalog.applyDelete(ctx, id)
	uc.publish(ctx, domain.TableListings, domain.OpDelete, id, listing.OwnerID)

	uc.logger.Info("ListingUsecase.DeleteListing: listing deleted", "listing_id", id, "actor_id", actorID)
	return nil
}

func (uc *ListingUsecase) publish(ctx context.Context, table, op, id, ownerID string) {
	if uc.publisher == nil {
		return
	}
	event := domain.ChangeEvent{
		Table:   table,
		Op:      op,
		ID:      id,
		OwnerID: ownerID,
		At:      time.Now().UTC(),
	}
	if err := uc.publisher.PublishChange(ctx, event); err != nil {
		uc.logger.Warn("ListingUsecase.publish: change event publish failed", "table", table, "op", op, "id", id, "error", err.Error())
	}
}
