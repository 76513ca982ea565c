package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction as seen by callers.
type AuctionStatus string

const (
	StatusOpen   AuctionStatus = "open"
	StatusClosed AuctionStatus = "closed"
)

// User represents a participant in the auction house
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction represents a timed listing. StartingPrice and EndsAt are fixed at
// creation; CurrentPrice, Closed and WinnerID are mutated only inside the
// store's per-auction exclusive section.
type Auction struct {
	AuctionID     string          `json:"auction_id"`
	OwnerID       string          `json:"owner_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CreatedAt     time.Time       `json:"created_at"`
	EndsAt        time.Time       `json:"ends_at"`
	Closed        bool            `json:"closed"`
	WinnerID      string          `json:"winner_id,omitempty"`
}

// Bid represents a user's committed bid on an auction. Immutable once recorded.
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuctionSummary is the condensed listing view: price state, bid count and,
// once the auction is closed, the winner.
type AuctionSummary struct {
	AuctionID     string          `json:"auction_id"`
	Title         string          `json:"title"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TotalBids     int             `json:"total_bids"`
	Status        AuctionStatus   `json:"status"`
	WinnerID      string          `json:"winner_id,omitempty"`
}
