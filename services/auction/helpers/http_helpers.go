package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrEndsTooSoon):
		return http.StatusBadRequest, "end time too soon"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusBadRequest, "cannot bid on own auction"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "not the auction owner"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionEnded):
		return http.StatusConflict, "auction has ended"
	case errors.Is(err, auctionerrors.ErrAuctionFrozen):
		return http.StatusConflict, "auction has bids and cannot be modified"
	case errors.Is(err, auctionerrors.ErrTimeout):
		return http.StatusServiceUnavailable, "auction busy, retry the bid"
	case errors.Is(err, auctionerrors.ErrStoreUnavailable):
		return http.StatusBadGateway, "auction store unavailable"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrUserNoBids):
		return http.StatusOK, "no bids found for user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// ToAuctionResponse converts an auction record into its response DTO
func ToAuctionResponse(auction model.Auction, status model.AuctionStatus) AuctionResponse {
	return AuctionResponse{
		AuctionID:     auction.AuctionID,
		OwnerID:       auction.OwnerID,
		Title:         auction.Title,
		Description:   auction.Description,
		StartingPrice: auction.StartingPrice.StringFixed(2),
		CurrentPrice:  auction.CurrentPrice.StringFixed(2),
		CreatedAt:     auction.CreatedAt.UTC().Format(time.RFC3339),
		EndsAt:        auction.EndsAt.UTC().Format(time.RFC3339),
		Status:        string(status),
		WinnerID:      auction.WinnerID,
	}
}

// ToBidResponse converts a bid record into its response DTO
func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount.StringFixed(2),
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToBidResponses converts a slice of bids into response DTOs
func ToBidResponses(bids []model.Bid) []BidResponse {
	resp := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, ToBidResponse(b))
	}
	return resp
}
