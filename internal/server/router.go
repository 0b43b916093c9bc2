package server

import (
	handler "auction-service/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/active", auctionHandler.GetActiveAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.PATCH("/:auction_id/reserve-price", auctionHandler.UpdateReservePriceHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.POST("/:auction_id/end", auctionHandler.EndAuctionEarlyHandler)
	}

	owners := router.Group("/owners")
	{
		owners.GET("/:owner_id/auctions", auctionHandler.GetAuctionsByOwnerHandler)
	}

	buyers := router.Group("/buyers")
	{
		buyers.GET("/:buyer_id/activity", auctionHandler.GetBuyerActivityHandler)
	}

	return router
}
