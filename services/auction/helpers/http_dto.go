package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs
type CreateAuctionRequest struct {
	OwnerID       string          `json:"owner_id" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price" binding:"required"`
	EndsAt        time.Time       `json:"ends_at" binding:"required"`
}

type UpdateAuctionRequest struct {
	CallerID      string           `json:"caller_id" binding:"required"`
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	StartingPrice *decimal.Decimal `json:"starting_price"`
	EndsAt        *time.Time       `json:"ends_at"`
}

type PlaceBidRequest struct {
	AuctionID string          `json:"auction_id" binding:"required"`
	BidderID  string          `json:"bidder_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// Response DTOs
type AuctionResponse struct {
	AuctionID     string `json:"auction_id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartingPrice string `json:"starting_price"`
	CurrentPrice  string `json:"current_price"`
	CreatedAt     string `json:"created_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	WinnerID      string `json:"winner_id,omitempty"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type SummaryResponse struct {
	AuctionID     string `json:"auction_id"`
	Title         string `json:"title"`
	StartingPrice string `json:"starting_price"`
	CurrentPrice  string `json:"current_price"`
	TotalBids     int    `json:"total_bids"`
	Status        string `json:"status"`
	WinnerID      string `json:"winner_id,omitempty"`
}
