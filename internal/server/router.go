package server

import (
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, biddingService handler.BiddingServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)
	biddingHandler := handler.NewBiddingHandler(biddingService)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PUT("/:auction_id", auctionHandler.UpdateAuctionHandler)
		auctions.DELETE("/:auction_id", auctionHandler.DeleteAuctionHandler)
		auctions.GET("/:auction_id/summary", auctionHandler.GetSummaryHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", biddingHandler.GetWinningBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", biddingHandler.PlaceBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", biddingHandler.GetBidsByUserHandler)
		users.GET("/:user_id/auctions", auctionHandler.GetAuctionsByOwnerHandler)
	}

	return router
}
