package usecase

import (
	"context"
	"math"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

// UnlockUsecase records paid contact-info unlocks. Payment itself happens
// elsewhere; RecordUnlock is only called after an external confirmation.
type UnlockUsecase struct {
	repo      domain.UnlockRepository
	publisher domain.Publisher
	logger    *logger.Logger
	timeout   time.Duration
}

func NewUnlockUsecase(repo domain.UnlockRepository, publisher domain.Publisher, timeout time.Duration, log *logger.Logger) *UnlockUsecase {
	return &UnlockUsecase{repo: repo, publisher: publisher, logger: log, timeout: timeout}
}

func (uc *UnlockUsecase) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.timeout)
}

func (uc *UnlockUsecase) CheckUnlocked(ctx context.Context, userID, listingID string) (bool, error) {
	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()
	return uc.repo.Exists(rctx, userID, listingID)
}

// RecordUnlock inserts the unlock row. Recording an already-unlocked pair
// again creates a duplicate record, which is tolerated, never an error.
func (uc *UnlockUsecase) RecordUnlock(ctx context.Context, userID, listingID string, amount float64) (*domain.Unlock, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "amount must be a non-negative number"}
	}

	rctx, cancel := uc.remoteCtx(ctx)
	defer cancel()

	unlock := &domain.Unlock{UserID: userID, ListingID: listingID, Amount: amount}
	if err := uc.repo.Add(rctx, unlock); err != nil {
		uc.logger.Error("UnlockUsecase.RecordUnlock: insert failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		return nil, err
	}

	if uc.publisher != nil {
		event := domain.ChangeEvent{
			Table:   domain.TableUnlocks,
			Op:      domain.OpInsert,
			ID:      listingID,
			OwnerID: userID,
			At:      time.Now().UTC(),
		}
		if err := uc.publisher.PublishChange(ctx, event); err != nil {
			uc.logger.Warn("UnlockUsecase.RecordUnlock: publish failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		}
	}

	uc.logger.Info("UnlockUsecase.RecordUnlock: unlock recorded", "user_id", userID, "listing_id", listingID, "amount", amount)
	return unlock, nil
}
