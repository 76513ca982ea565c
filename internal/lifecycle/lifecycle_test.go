package lifecycle

import (
	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuction(auctionID, ownerID string, startingPrice int64, endsAt time.Time) model.Auction {
	price := decimal.NewFromInt(startingPrice)
	return model.Auction{
		AuctionID:     auctionID,
		OwnerID:       ownerID,
		Title:         fmt.Sprintf("%s title", auctionID),
		StartingPrice: price,
		CurrentPrice:  price,
		CreatedAt:     baseTime,
		EndsAt:        endsAt,
	}
}

func newBid(bidID, auctionID, bidderID string, amount int64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: createdAt,
	}
}

func seedBid(t *testing.T, store *repository.MemoryStore, bid model.Bid) {
	t.Helper()
	err := store.Atomically(bid.AuctionID, func(tx *repository.Tx) error {
		auction := tx.Auction()
		if bid.Amount.Cmp(auction.CurrentPrice) > 0 {
			auction.CurrentPrice = bid.Amount
			tx.UpdateAuction(auction)
		}
		tx.AppendBid(bid)
		return nil
	})
	require.NoError(t, err)
}

// Test StatusOf
func TestStatusOf(t *testing.T) {
	t.Parallel()

	endsAt := baseTime.Add(time.Hour)

	tests := []struct {
		name    string
		auction model.Auction
		now     time.Time
		want    model.AuctionStatus
	}{
		{name: "open_before_deadline", auction: newAuction("a1", "o1", 100, endsAt), now: baseTime, want: model.StatusOpen},
		{name: "closed_at_deadline", auction: newAuction("a1", "o1", 100, endsAt), now: endsAt, want: model.StatusClosed},
		{name: "closed_after_deadline", auction: newAuction("a1", "o1", 100, endsAt), now: endsAt.Add(time.Second), want: model.StatusClosed},
		{name: "closed_flag_wins_before_deadline", auction: func() model.Auction {
			a := newAuction("a1", "o1", 100, endsAt)
			a.Closed = true
			return a
		}(), now: baseTime, want: model.StatusClosed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, StatusOf(tc.auction, tc.now))
		})
	}
}

// Test CloseIfExpired
func TestManager_CloseIfExpired(t *testing.T) {
	t.Parallel()

	endsAt := baseTime.Add(time.Hour)
	afterEnd := endsAt.Add(time.Minute)

	t.Run("no_bids_closes_without_winner", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		result, err := mgr.CloseIfExpired("auction1", afterEnd)
		require.NoError(t, err)
		require.True(t, result.DidClose)
		require.Empty(t, result.WinnerID)

		auction, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.True(t, auction.Closed)
		require.Empty(t, auction.WinnerID)
	})

	t.Run("highest_bidder_wins", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		seedBid(t, store, newBid("bid1", "auction1", "user1", 150, baseTime))
		seedBid(t, store, newBid("bid2", "auction1", "user2", 200, baseTime.Add(time.Second)))

		result, err := mgr.CloseIfExpired("auction1", afterEnd)
		require.NoError(t, err)
		require.True(t, result.DidClose)
		require.Equal(t, "user2", result.WinnerID)
	})

	t.Run("amount_tie_goes_to_earliest", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		err := store.Atomically("auction1", func(tx *repository.Tx) error {
			tx.AppendBid(newBid("bid1", "auction1", "userA", 200, baseTime))
			tx.AppendBid(newBid("bid2", "auction1", "userB", 200, baseTime.Add(time.Second)))
			return nil
		})
		require.NoError(t, err)

		result, err := mgr.CloseIfExpired("auction1", afterEnd)
		require.NoError(t, err)
		require.Equal(t, "userA", result.WinnerID)
	})

	t.Run("not_yet_due_is_noop", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		result, err := mgr.CloseIfExpired("auction1", baseTime)
		require.NoError(t, err)
		require.False(t, result.DidClose)

		auction, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.False(t, auction.Closed)
	})

	t.Run("repeated_close_is_noop", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		seedBid(t, store, newBid("bid1", "auction1", "user1", 150, baseTime))

		first, err := mgr.CloseIfExpired("auction1", afterEnd)
		require.NoError(t, err)
		require.True(t, first.DidClose)

		second, err := mgr.CloseIfExpired("auction1", afterEnd)
		require.NoError(t, err)
		require.False(t, second.DidClose)

		auction, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.Equal(t, "user1", auction.WinnerID)
	})

	t.Run("missing_auction", func(t *testing.T) {
		t.Parallel()

		mgr := NewManager(repository.NewMemoryStore())
		_, err := mgr.CloseIfExpired("auctionX", afterEnd)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})
}

// Concurrent closers must perform exactly one winner assignment.
func TestManager_CloseIfExpired_Concurrent(t *testing.T) {
	t.Parallel()

	endsAt := baseTime.Add(time.Hour)
	afterEnd := endsAt.Add(time.Minute)

	store := repository.NewMemoryStoreWithTimeout(10 * time.Second)
	require.NoError(t, store.CreateAuction(newAuction("auction1", "owner1", 100, endsAt)))
	mgr := NewManager(store)

	seedBid(t, store, newBid("bid1", "auction1", "user1", 150, baseTime))
	seedBid(t, store, newBid("bid2", "auction1", "user2", 300, baseTime.Add(time.Second)))

	var wg sync.WaitGroup
	results := make(chan CloseResult, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := mgr.CloseIfExpired("auction1", afterEnd)
			require.NoError(t, err)
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	didClose := 0
	for result := range results {
		if result.DidClose {
			didClose++
			require.Equal(t, "user2", result.WinnerID)
		}
	}
	require.Equal(t, 1, didClose, "exactly one caller must perform the transition")

	auction, err := store.GetAuction("auction1")
	require.NoError(t, err)
	require.True(t, auction.Closed)
	require.Equal(t, "user2", auction.WinnerID)
}

// Test SweepExpired
func TestManager_SweepExpired(t *testing.T) {
	t.Parallel()

	endsAt := baseTime.Add(time.Hour)
	afterEnd := endsAt.Add(time.Minute)

	t.Run("closes_only_overdue_auctions", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("overdue1", "owner1", 100, endsAt)))
		require.NoError(t, store.CreateAuction(newAuction("overdue2", "owner1", 100, endsAt.Add(-30*time.Minute))))
		require.NoError(t, store.CreateAuction(newAuction("running", "owner1", 100, afterEnd.Add(time.Hour))))
		mgr := NewManager(store)

		closed, failures, err := mgr.SweepExpired(afterEnd)
		require.NoError(t, err)
		require.Empty(t, failures)
		require.Equal(t, 2, closed)

		running, err := store.GetAuction("running")
		require.NoError(t, err)
		require.False(t, running.Closed)
	})

	t.Run("repeated_sweep_is_noop", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("overdue1", "owner1", 100, endsAt)))
		mgr := NewManager(store)

		closed, _, err := mgr.SweepExpired(afterEnd)
		require.NoError(t, err)
		require.Equal(t, 1, closed)

		closed, _, err = mgr.SweepExpired(afterEnd)
		require.NoError(t, err)
		require.Equal(t, 0, closed)
	})

	t.Run("concurrent_sweeps_assign_one_winner", func(t *testing.T) {
		t.Parallel()

		store := repository.NewMemoryStoreWithTimeout(10 * time.Second)
		require.NoError(t, store.CreateAuction(newAuction("overdue1", "owner1", 100, endsAt)))
		mgr := NewManager(store)
		seedBid(t, store, newBid("bid1", "overdue1", "user1", 150, baseTime))

		var wg sync.WaitGroup
		totals := make(chan int, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				closed, failures, err := mgr.SweepExpired(afterEnd)
				require.NoError(t, err)
				require.Empty(t, failures)
				totals <- closed
			}()
		}
		wg.Wait()
		close(totals)

		sum := 0
		for n := range totals {
			sum += n
		}
		require.Equal(t, 1, sum, "the transition must be counted exactly once across sweeps")

		auction, err := store.GetAuction("overdue1")
		require.NoError(t, err)
		require.True(t, auction.Closed)
		require.Equal(t, "user1", auction.WinnerID)
	})
}

// One failing auction must not abort the sweep for the rest.
func TestManager_SweepExpired_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	endsAt := baseTime.Add(time.Hour)
	afterEnd := endsAt.Add(time.Minute)

	broken := newAuction("broken", "owner1", 100, endsAt)
	healthy := newAuction("healthy", "owner1", 100, endsAt)

	mockStore := repository.NewMockAuctionStore(ctrl)
	mockStore.EXPECT().ListAuctions().Return([]model.Auction{broken, healthy}, nil)
	mockStore.EXPECT().Atomically("broken", gomock.Any()).Return(errors.New("store write failed"))
	mockStore.EXPECT().Atomically("healthy", gomock.Any()).DoAndReturn(
		func(auctionID string, fn func(tx *repository.Tx) error) error {
			return fn(repository.NewTx(healthy, nil))
		})

	mgr := NewManager(mockStore)
	closed, failures, err := mgr.SweepExpired(afterEnd)
	require.NoError(t, err)
	require.Equal(t, 1, closed)
	require.Len(t, failures, 1)
	require.Equal(t, "broken", failures[0].AuctionID)
	require.Error(t, failures[0].Err)
}

// Listing failure surfaces as a sweep error.
func TestManager_SweepExpired_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	mockStore.EXPECT().ListAuctions().Return(nil, auctionerrors.ErrStoreUnavailable)

	mgr := NewManager(mockStore)
	_, _, err := mgr.SweepExpired(baseTime)
	require.ErrorIs(t, err, auctionerrors.ErrStoreUnavailable)
}
