package bidding

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/clock"
	"auction-house/internal/lifecycle"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
	"fmt"

	"github.com/shopspring/decimal"
)

// BiddingService is the bid admission engine: it decides accept/reject for a
// candidate bid and, on accept, records the bid and raises the auction's
// current price in one atomic step.
type BiddingService struct {
	store     repository.AuctionStore
	clk       clock.Clock
	lifecycle *lifecycle.Manager
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.AuctionStore, clk clock.Clock, lc *lifecycle.Manager) *BiddingService {
	return &BiddingService{
		store:     store,
		clk:       clk,
		lifecycle: lc,
	}
}

// TryAdmitBid validates a bid and commits it through the auction's exclusive
// section. Rejections are sentinel-wrapped values callers branch on:
// ErrAuctionNotFound, ErrAuctionEnded, ErrSelfBid, ErrBidTooLow (carrying the
// price actually observed), ErrTimeout. A rejected bid leaves no state behind.
func (s *BiddingService) TryAdmitBid(auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if amount.Sign() <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	now := s.clk.Now()

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	if lifecycle.StatusOf(auction, now) == models.StatusClosed {
		// A bid attempt is one of the expiry triggers: an overdue auction is
		// closed through the single closing path before the bid is rejected.
		if !auction.Closed {
			if _, closeErr := s.lifecycle.CloseIfExpired(auctionID, now); closeErr != nil {
				utils.Warn("bid-triggered close failed", map[string]any{
					"auction_id": auctionID,
					"error":      closeErr.Error(),
				})
			}
		}
		return models.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}

	if auction.OwnerID == bidderID {
		return models.Bid{}, fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrSelfBid)
	}

	if amount.Cmp(auction.CurrentPrice) <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - current price is %s", auctionerrors.ErrBidTooLow, auction.CurrentPrice.StringFixed(2))
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	// Compare-and-raise: the checks above ran against a possibly stale read,
	// so both the ended check and the price compare are re-validated against
	// the fresh snapshot inside the exclusive section before committing.
	err = s.store.Atomically(auctionID, func(tx *repository.Tx) error {
		current := tx.Auction()
		if current.Closed || !now.Before(current.EndsAt) {
			return fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
		}
		if amount.Cmp(current.CurrentPrice) <= 0 {
			return fmt.Errorf("service: %w - current price is %s", auctionerrors.ErrBidTooLow, current.CurrentPrice.StringFixed(2))
		}

		tx.AppendBid(bid)
		current.CurrentPrice = amount
		tx.UpdateAuction(current)
		return nil
	})
	if err != nil {
		return models.Bid{}, err
	}

	return bid, nil
}

// GetBidsForAuction returns all bids for an auction, highest first
func (s *BiddingService) GetBidsForAuction(auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.store.ListBidsFor(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	return bids, nil
}

// GetWinningBid returns the highest bid for an auction, ties broken by
// earliest CreatedAt
func (s *BiddingService) GetWinningBid(auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.store.ListBidsFor(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}

	return bids[0], nil
}

// GetBidsByUser returns all bids a user has placed across auctions
func (s *BiddingService) GetBidsByUser(userID string) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.store.GetBidsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}

	return bids, nil
}
