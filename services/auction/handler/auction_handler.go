package handler

import (
	"fmt"
	"net/http"
	"time"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(ownerID, title, description string, startingPrice decimal.Decimal, endsAt time.Time) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, model.AuctionStatus, error)
	ListAuctions(status model.AuctionStatus, ownerID string) ([]model.Auction, error)
	UpdateAuction(auctionID, callerID string, update auction.AuctionUpdate) (model.Auction, error)
	DeleteAuction(auctionID, callerID string) error
	GetSummary(auctionID string) (model.AuctionSummary, error)
	GetAuctionsByOwner(ownerID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// statusOf derives the response status from the record. Reads have already
// routed overdue auctions through the lifecycle close, so the flag is
// authoritative here.
func statusOf(a model.Auction) model.AuctionStatus {
	if a.Closed {
		return model.StatusClosed
	}
	return model.StatusOpen
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(req.OwnerID, req.Title, req.Description, req.StartingPrice, req.EndsAt)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"owner_id": req.OwnerID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(created, model.StatusOpen), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"owner_id":   created.OwnerID,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	found, status, err := h.service.GetAuction(auctionID)
	if err != nil {
		code, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, code, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(found, status), "auction retrieved successfully")
}

// ListAuctionsHandler handles GET /auctions?status=&owner_id=
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	status := model.AuctionStatus(c.Query("status"))
	if status != "" && status != model.StatusOpen && status != model.StatusClosed {
		utils.JSONError(c, http.StatusBadRequest, fmt.Errorf("unknown status filter %q", status), "invalid status filter")
		return
	}

	auctions, err := h.service.ListAuctions(status, c.Query("owner_id"))
	if err != nil {
		code, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, code, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error listing auctions", map[string]any{"error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a, statusOf(a)))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// UpdateAuctionHandler handles PUT /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	updated, err := h.service.UpdateAuction(auctionID, req.CallerID, auction.AuctionUpdate{
		Title:         req.Title,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		EndsAt:        req.EndsAt,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateAuctionHandler: failed to update auction", map[string]any{
			"auction_id": auctionID,
			"caller_id":  req.CallerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(updated, statusOf(updated)), "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{
		"auction_id": auctionID,
		"caller_id":  req.CallerID,
	})
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	callerID := c.Query("caller_id")

	if err := h.service.DeleteAuction(auctionID, callerID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteAuctionHandler: failed to delete auction", map[string]any{
			"auction_id": auctionID,
			"caller_id":  callerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"caller_id":  callerID,
	})
}

// GetSummaryHandler handles GET /auctions/:auction_id/summary
func (h *AuctionHandler) GetSummaryHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	summary, err := h.service.GetSummary(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetSummaryHandler: error retrieving summary", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.SummaryResponse{
		AuctionID:     summary.AuctionID,
		Title:         summary.Title,
		StartingPrice: summary.StartingPrice.StringFixed(2),
		CurrentPrice:  summary.CurrentPrice.StringFixed(2),
		TotalBids:     summary.TotalBids,
		Status:        string(summary.Status),
		WinnerID:      summary.WinnerID,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "summary retrieved successfully")
}

// GetAuctionsByOwnerHandler handles GET /users/:user_id/auctions
func (h *AuctionHandler) GetAuctionsByOwnerHandler(c *gin.Context) {
	ownerID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByOwner(ownerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByOwnerHandler: error retrieving auctions", map[string]any{"user_id": ownerID, "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a, statusOf(a)))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}
