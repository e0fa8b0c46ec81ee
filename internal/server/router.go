package server

import (
	"ownit/internal/events"
	handler "ownit/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface, hub *events.Hub) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service, hub)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.PUT("/:auction_id/start", auctionHandler.StartAuctionHandler)
		auctions.POST("/:auction_id/join", auctionHandler.JoinAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", auctionHandler.GetWinningBidHandler)
		auctions.POST("/:auction_id/autobid", auctionHandler.SetAutoBidHandler)
		auctions.PUT("/:auction_id/end", auctionHandler.EndAuctionHandler)
		auctions.PUT("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id/events", auctionHandler.StreamEventsHandler)
	}

	router.POST("/sweep", auctionHandler.RunSweepHandler)

	return router
}
