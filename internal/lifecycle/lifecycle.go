package lifecycle

import (
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
	"fmt"
	"time"
)

// Manager owns the auction state machine: deciding open/closed, performing
// the one-shot closing transition and resolving the winner. Every expiry
// trigger (status query, bid attempt, periodic sweep) routes through
// CloseIfExpired so winner assignment happens exactly once.
type Manager struct {
	store repository.AuctionStore
}

// NewManager creates a new lifecycle Manager instance.
func NewManager(store repository.AuctionStore) *Manager {
	return &Manager{store: store}
}

// StatusOf reports an auction's state as of now. Pure: an auction is closed
// once its flag is set or its deadline has been reached, whichever callers
// observe first.
func StatusOf(auction model.Auction, now time.Time) model.AuctionStatus {
	if auction.Closed || !now.Before(auction.EndsAt) {
		return model.StatusClosed
	}
	return model.StatusOpen
}

// CloseResult reports what a CloseIfExpired call did.
type CloseResult struct {
	DidClose bool   // true only for the call that performed the transition
	WinnerID string // empty when no bids were placed
}

// CloseIfExpired transitions an overdue auction to closed and assigns the
// winner: the bid with the highest amount, ties broken by earliest CreatedAt.
// Idempotent: already-closed and not-yet-due auctions are no-ops. The whole
// read-decide-write runs inside the auction's exclusive section so concurrent
// discoverers of expiry cannot assign the winner twice.
func (m *Manager) CloseIfExpired(auctionID string, now time.Time) (CloseResult, error) {
	var result CloseResult

	err := m.store.Atomically(auctionID, func(tx *repository.Tx) error {
		auction := tx.Auction()
		if auction.Closed || now.Before(auction.EndsAt) {
			return nil
		}

		if winning, ok := tx.HighestBid(); ok {
			auction.WinnerID = winning.BidderID
		}
		auction.Closed = true
		tx.UpdateAuction(auction)

		result = CloseResult{DidClose: true, WinnerID: auction.WinnerID}
		return nil
	})
	if err != nil {
		return CloseResult{}, fmt.Errorf("lifecycle: failed to close auction %s: %w", auctionID, err)
	}

	if result.DidClose {
		utils.Info("auction closed", map[string]any{
			"auction_id": auctionID,
			"winner_id":  result.WinnerID,
			"closed_at":  now.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}

// SweepFailure records one auction the sweep could not close.
type SweepFailure struct {
	AuctionID string
	Err       error
}

// SweepExpired closes every auction past its deadline that is not yet marked
// closed. Failures on one auction never abort the sweep for the rest; the
// call reports how many auctions it closed plus the per-auction failures.
func (m *Manager) SweepExpired(now time.Time) (int, []SweepFailure, error) {
	auctions, err := m.store.ListAuctions()
	if err != nil {
		return 0, nil, fmt.Errorf("lifecycle: sweep failed to list auctions: %w", err)
	}

	closed := 0
	var failures []SweepFailure
	for _, auction := range auctions {
		if auction.Closed || now.Before(auction.EndsAt) {
			continue
		}

		result, err := m.CloseIfExpired(auction.AuctionID, now)
		if err != nil {
			failures = append(failures, SweepFailure{AuctionID: auction.AuctionID, Err: err})
			utils.Warn("sweep: failed to close auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if result.DidClose {
			closed++
		}
	}
	return closed, failures, nil
}
