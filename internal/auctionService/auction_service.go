package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/clock"
	"auction-house/internal/lifecycle"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MinEndsAtBuffer is how far in the future an auction's end time must lie at
// creation time.
const MinEndsAtBuffer = 5 * time.Minute

// AuctionService owns the listing surface: creating, reading, editing and
// deleting auctions. Closing and winner assignment stay with the lifecycle
// Manager; reads that observe an overdue auction route through it.
type AuctionService struct {
	store     repository.AuctionStore
	clk       clock.Clock
	lifecycle *lifecycle.Manager
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, clk clock.Clock, lc *lifecycle.Manager) *AuctionService {
	return &AuctionService{
		store:     store,
		clk:       clk,
		lifecycle: lc,
	}
}

// AuctionUpdate carries the editable fields of an auction. Nil fields are
// left unchanged.
type AuctionUpdate struct {
	Title         *string
	Description   *string
	StartingPrice *decimal.Decimal
	EndsAt        *time.Time
}

// CreateAuction lists a new auction. The current price starts at the
// starting price and the end time must be at least MinEndsAtBuffer away.
func (s *AuctionService) CreateAuction(ownerID, title, description string, startingPrice decimal.Decimal, endsAt time.Time) (models.Auction, error) {
	if ownerID == "" || title == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing ownerID or title", auctionerrors.ErrInvalidInput)
	}
	if startingPrice.Sign() <= 0 {
		return models.Auction{}, fmt.Errorf("service: %w - non-positive starting price", auctionerrors.ErrInvalidInput)
	}

	now := s.clk.Now()
	if endsAt.Before(now.Add(MinEndsAtBuffer)) {
		return models.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrEndsTooSoon)
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		CreatedAt:     now,
		EndsAt:        endsAt.UTC(),
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for owner %s: %w", ownerID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"owner_id":   ownerID,
		"ends_at":    auction.EndsAt.Format(time.RFC3339),
	})
	return auction, nil
}

// GetAuction returns an auction together with its status. Observing an
// overdue auction closes it first, so the returned record already carries
// the winner.
func (s *AuctionService) GetAuction(auctionID string) (models.Auction, models.AuctionStatus, error) {
	if auctionID == "" {
		return models.Auction{}, "", fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return models.Auction{}, "", fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	now := s.clk.Now()
	if !auction.Closed && lifecycle.StatusOf(auction, now) == models.StatusClosed {
		if _, err := s.lifecycle.CloseIfExpired(auctionID, now); err != nil {
			return models.Auction{}, "", fmt.Errorf("service: failed to close overdue auction %s: %w", auctionID, err)
		}
		if auction, err = s.store.GetAuction(auctionID); err != nil {
			return models.Auction{}, "", fmt.Errorf("service: failed to reload auction %s: %w", auctionID, err)
		}
	}

	return auction, lifecycle.StatusOf(auction, now), nil
}

// ListAuctions returns auctions filtered by status ("open", "closed" or ""
// for all) and by owner ("" for all). Overdue auctions encountered during
// the listing are closed through the lifecycle Manager; a failure to close
// one auction does not fail the listing.
func (s *AuctionService) ListAuctions(status models.AuctionStatus, ownerID string) ([]models.Auction, error) {
	auctions, err := s.store.ListAuctions()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}

	now := s.clk.Now()
	filtered := make([]models.Auction, 0, len(auctions))
	for _, auction := range s.closeOverdue(auctions, now) {
		if ownerID != "" && auction.OwnerID != ownerID {
			continue
		}
		if status != "" && lifecycle.StatusOf(auction, now) != status {
			continue
		}
		filtered = append(filtered, auction)
	}
	return filtered, nil
}

// closeOverdue routes every overdue-but-unclosed auction through the
// lifecycle Manager and returns refreshed records. A failure to close one
// auction leaves its stale record in place rather than failing the read.
func (s *AuctionService) closeOverdue(auctions []models.Auction, now time.Time) []models.Auction {
	refreshed := make([]models.Auction, 0, len(auctions))
	for _, auction := range auctions {
		if !auction.Closed && lifecycle.StatusOf(auction, now) == models.StatusClosed {
			if _, err := s.lifecycle.CloseIfExpired(auction.AuctionID, now); err != nil {
				utils.Warn("failed to close overdue auction during read", map[string]any{
					"auction_id": auction.AuctionID,
					"error":      err.Error(),
				})
			} else if fresh, err := s.store.GetAuction(auction.AuctionID); err == nil {
				auction = fresh
			}
		}
		refreshed = append(refreshed, auction)
	}
	return refreshed
}

// UpdateAuction edits an auction on behalf of callerID. Title and
// description are always editable while the auction is open; starting price
// and end time freeze once any bid exists.
func (s *AuctionService) UpdateAuction(auctionID, callerID string, update AuctionUpdate) (models.Auction, error) {
	if auctionID == "" || callerID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing auctionID or callerID", auctionerrors.ErrInvalidInput)
	}

	now := s.clk.Now()
	var updated models.Auction

	err := s.store.Atomically(auctionID, func(tx *repository.Tx) error {
		auction := tx.Auction()
		if auction.OwnerID != callerID {
			return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
		}
		if auction.Closed || !now.Before(auction.EndsAt) {
			return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
		}

		if update.Title != nil {
			auction.Title = *update.Title
		}
		if update.Description != nil {
			auction.Description = *update.Description
		}

		if update.StartingPrice != nil || update.EndsAt != nil {
			if len(tx.Bids()) > 0 {
				return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionFrozen)
			}
			if update.StartingPrice != nil {
				if update.StartingPrice.Sign() <= 0 {
					return fmt.Errorf("service: %w - non-positive starting price", auctionerrors.ErrInvalidInput)
				}
				auction.StartingPrice = *update.StartingPrice
				auction.CurrentPrice = *update.StartingPrice
			}
			if update.EndsAt != nil {
				if update.EndsAt.Before(now.Add(MinEndsAtBuffer)) {
					return fmt.Errorf("service: %w", auctionerrors.ErrEndsTooSoon)
				}
				auction.EndsAt = update.EndsAt.UTC()
			}
		}

		tx.UpdateAuction(auction)
		updated = auction
		return nil
	})
	if err != nil {
		return models.Auction{}, err
	}

	return updated, nil
}

// DeleteAuction removes an auction and its bid history on behalf of callerID.
func (s *AuctionService) DeleteAuction(auctionID, callerID string) error {
	if auctionID == "" || callerID == "" {
		return fmt.Errorf("service: %w - missing auctionID or callerID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	if auction.OwnerID != callerID {
		return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
	}

	if err := s.store.DeleteAuction(auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}

// GetSummary returns the condensed view of an auction. The winner is only
// exposed once the auction is closed.
func (s *AuctionService) GetSummary(auctionID string) (models.AuctionSummary, error) {
	auction, status, err := s.GetAuction(auctionID)
	if err != nil {
		return models.AuctionSummary{}, err
	}

	totalBids := 0
	bids, err := s.store.ListBidsFor(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return models.AuctionSummary{}, fmt.Errorf("service: failed to count bids for auction %s: %w", auctionID, err)
	}
	totalBids = len(bids)

	summary := models.AuctionSummary{
		AuctionID:     auction.AuctionID,
		Title:         auction.Title,
		StartingPrice: auction.StartingPrice,
		CurrentPrice:  auction.CurrentPrice,
		TotalBids:     totalBids,
		Status:        status,
	}
	if status == models.StatusClosed {
		summary.WinnerID = auction.WinnerID
	}
	return summary, nil
}

// GetAuctionsByOwner returns all auctions listed by an owner
func (s *AuctionService) GetAuctionsByOwner(ownerID string) ([]models.Auction, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("service: %w - empty owner ID", auctionerrors.ErrInvalidInput)
	}

	auctions, err := s.store.GetAuctionsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for owner %s: %w", ownerID, err)
	}
	return s.closeOverdue(auctions, s.clk.Now()), nil
}
