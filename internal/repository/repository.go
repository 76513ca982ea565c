package repository

import (
	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"fmt"
	"sort"
	"sync"
	"time"
)

// AuctionStore defines auction and bid storage for the auction house.
// Atomically is the one primitive the core cannot do without: it runs fn
// with exclusive access to a single auction's mutable fields and bid
// history, committing all staged writes or discarding them on error.
type AuctionStore interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() ([]model.Auction, error)
	DeleteAuction(auctionID string) error
	ListBidsFor(auctionID string) ([]model.Bid, error)
	GetBidsByUser(userID string) ([]model.Bid, error)
	GetAuctionsByOwner(ownerID string) ([]model.Auction, error)
	Atomically(auctionID string, fn func(tx *Tx) error) error
}

// Tx is the transaction view handed to Atomically's fn. It exposes a
// consistent snapshot of one auction and stages writes that the store
// commits only when fn returns nil.
type Tx struct {
	auction model.Auction
	bids    []model.Bid
	newBids []model.Bid
	dirty   bool
}

// NewTx builds a transaction view from a snapshot. This constructor is
// intended for tests driving mocked stores.
func NewTx(auction model.Auction, bids []model.Bid) *Tx {
	return &Tx{auction: auction, bids: sortBids(bids)}
}

// Auction returns the snapshot of the auction, including staged changes.
func (tx *Tx) Auction() model.Auction {
	return tx.auction
}

// Bids returns the auction's bid history including staged bids, ordered by
// amount descending with ties broken by earliest CreatedAt.
func (tx *Tx) Bids() []model.Bid {
	all := append(append([]model.Bid(nil), tx.bids...), tx.newBids...)
	return sortBids(all)
}

// HighestBid returns the current winning bid, if any bid exists.
func (tx *Tx) HighestBid() (model.Bid, bool) {
	bids := tx.Bids()
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	return bids[0], true
}

// UpdateAuction stages a write of the auction's fields.
func (tx *Tx) UpdateAuction(auction model.Auction) {
	tx.auction = auction
	tx.dirty = true
}

// AppendBid stages a new bid for the auction's history.
func (tx *Tx) AppendBid(bid model.Bid) {
	tx.newBids = append(tx.newBids, bid)
	tx.dirty = true
}

// sortBids orders bids by amount descending, ties by earliest CreatedAt.
func sortBids(bids []model.Bid) []model.Bid {
	sorted := append([]model.Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		switch sorted[i].Amount.Cmp(sorted[j].Amount) {
		case 1:
			return true
		case -1:
			return false
		default:
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
	})
	return sorted
}

// auctionRecord holds one auction's state. The section channel realizes the
// per-auction exclusive section; mu guards snapshot reads against commits so
// plain getters never block behind a long admission.
type auctionRecord struct {
	section chan struct{}
	mu      sync.RWMutex
	auction model.Auction
	bids    []model.Bid
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
// Exclusive sections are scoped per auction: bids and closings for different
// auctions never contend with each other.
type MemoryStore struct {
	mu          sync.RWMutex
	auctions    map[string]*auctionRecord
	lockTimeout time.Duration
}

// DefaultLockTimeout bounds how long a caller may wait to enter an auction's
// exclusive section before the attempt is rejected as a timeout.
const DefaultLockTimeout = 2 * time.Second

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithTimeout(DefaultLockTimeout)
}

// NewMemoryStoreWithTimeout creates a store with a custom lock wait bound.
func NewMemoryStoreWithTimeout(lockTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		auctions:    make(map[string]*auctionRecord),
		lockTimeout: lockTimeout,
	}
}

// CreateAuction stores a new auction record.
func (s *MemoryStore) CreateAuction(auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w - auction id already exists", auction.AuctionID, auctionerrors.ErrInvalidInput)
	}

	rec := &auctionRecord{
		section: make(chan struct{}, 1),
		auction: auction,
	}
	s.auctions[auction.AuctionID] = rec
	return nil
}

// GetAuction returns a snapshot of an auction.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	rec, err := s.record(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.auction, nil
}

// ListAuctions returns snapshots of all auctions.
func (s *MemoryStore) ListAuctions() ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(s.auctions))
	for _, rec := range s.auctions {
		rec.mu.RLock()
		auctions = append(auctions, rec.auction)
		rec.mu.RUnlock()
	}

	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return auctions, nil
}

// DeleteAuction removes an auction and cascades its bid history.
func (s *MemoryStore) DeleteAuction(auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	delete(s.auctions, auctionID)
	return nil
}

// ListBidsFor returns all bids for an auction ordered by amount descending,
// ties by earliest CreatedAt.
func (s *MemoryStore) ListBidsFor(auctionID string) ([]model.Bid, error) {
	rec, err := s.record(auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, err)
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	if len(rec.bids) == 0 {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return sortBids(rec.bids), nil
}

// GetBidsByUser returns all bids a user has placed, newest first.
func (s *MemoryStore) GetBidsByUser(userID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bids []model.Bid
	for _, rec := range s.auctions {
		rec.mu.RLock()
		for _, b := range rec.bids {
			if b.BidderID == userID {
				bids = append(bids, b)
			}
		}
		rec.mu.RUnlock()
	}

	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	sort.Slice(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
	return bids, nil
}

// GetAuctionsByOwner returns all auctions listed by an owner.
func (s *MemoryStore) GetAuctionsByOwner(ownerID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctions := make([]model.Auction, 0)
	for _, rec := range s.auctions {
		rec.mu.RLock()
		if rec.auction.OwnerID == ownerID {
			auctions = append(auctions, rec.auction)
		}
		rec.mu.RUnlock()
	}

	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return auctions, nil
}

// Atomically runs fn inside the auction's exclusive section. The snapshot
// handed to fn is consistent; staged writes commit only when fn returns nil.
// Waiting for the section is bounded by the store's lock timeout and expires
// as ErrTimeout with no partial write.
func (s *MemoryStore) Atomically(auctionID string, fn func(tx *Tx) error) error {
	rec, err := s.record(auctionID)
	if err != nil {
		return fmt.Errorf("atomic update of auction %s: %w", auctionID, err)
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case rec.section <- struct{}{}:
		defer func() { <-rec.section }()
	case <-timer.C:
		return fmt.Errorf("atomic update of auction %s: %w", auctionID, auctionerrors.ErrTimeout)
	}

	rec.mu.RLock()
	tx := &Tx{
		auction: rec.auction,
		bids:    append([]model.Bid(nil), rec.bids...),
	}
	rec.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	if tx.dirty {
		rec.mu.Lock()
		rec.auction = tx.auction
		rec.bids = append(rec.bids, tx.newBids...)
		rec.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) record(auctionID string) (*auctionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.auctions[auctionID]
	if !ok {
		return nil, auctionerrors.ErrAuctionNotFound
	}
	return rec, nil
}
