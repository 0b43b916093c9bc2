package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"auction-service/internal/auctionerrors"
	auction "auction-service/internal/auctionService"
	model "auction-service/internal/models"
	"auction-service/services/auction/helpers"
	"auction-service/utils"
)

type AuctionServiceInterface interface {
	CreateAuction(input auction.CreateAuctionInput) (model.Auction, error)
	GetAuction(auctionID string) (auction.AuctionDetail, error)
	PlaceBid(auctionID string, input auction.PlaceBidInput) (model.Bid, error)
	UpdateReservePrice(auctionID string, price decimal.Decimal) (model.Auction, error)
	CancelAuction(auctionID string) (model.Auction, error)
	EndAuctionEarly(auctionID string) (model.Auction, error)
	GetActiveAuctions() ([]auction.AuctionSummary, error)
	GetAuctionsByOwner(ownerID, statusFilter string) ([]auction.AuctionSummary, error)
	GetBuyerActivity(bidderID string) ([]auction.BuyerAuctionActivity, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionInput{
		OwnerID:           req.OwnerID,
		OwnerName:         req.OwnerName,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		ProductQuantity:   req.ProductQuantity,
		ProductImageURL:   req.ProductImageURL,
		Description:       req.Description,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		StartingPrice:     req.StartingPrice,
		ReservePrice:      req.ReservePrice,
		DeliveryAvailable: req.DeliveryAvailable,
		BaseDeliveryFee:   req.BaseDeliveryFee,
		ExtraFeePer3Km:    req.ExtraFeePer3Km,
		PickupAddress:     req.PickupAddress,
		PickupLatitude:    req.PickupLatitude,
		PickupLongitude:   req.PickupLongitude,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"handler":  "CreateAuctionHandler",
			"owner_id": req.OwnerID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, created, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.ID,
		"owner_id":   created.OwnerID,
		"status":     created.Status,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	detail, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.AuctionDetailResponse{
		Auction:       detail.Auction,
		TopBids:       helpers.NewBidResponses(detail.TopBids),
		TotalBidCount: detail.TotalBidCount,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction retrieved successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(auctionID, auction.PlaceBidInput{
		BidderID:        req.BidderID,
		BidderName:      req.BidderName,
		BidderEmail:     req.BidderEmail,
		Amount:          req.Amount,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.ID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// UpdateReservePriceHandler handles PATCH /auctions/:auction_id/reserve-price
func (h *AuctionHandler) UpdateReservePriceHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.UpdateReservePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateReservePriceHandler", err)
		return
	}

	updated, err := h.service.UpdateReservePrice(auctionID, req.ReservePrice)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateReservePriceHandler: failed to update reserve price", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, updated, "reserve price updated successfully")
	helpers.LogSuccess("UpdateReservePriceHandler", "reserve price updated successfully", map[string]any{
		"auction_id":    auctionID,
		"reserve_price": req.ReservePrice.String(),
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	cancelled, err := h.service.CancelAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CancelAuctionHandler: failed to cancel auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, cancelled, "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{"auction_id": auctionID})
}

// EndAuctionEarlyHandler handles POST /auctions/:auction_id/end
func (h *AuctionHandler) EndAuctionEarlyHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	ended, err := h.service.EndAuctionEarly(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusConflict, err, "cannot end auction with no bids")
			utils.Info("EndAuctionEarlyHandler: no bids to award", map[string]any{"auction_id": auctionID})
			return
		}
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("EndAuctionEarlyHandler: failed to end auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, ended, "auction ended successfully")
	helpers.LogSuccess("EndAuctionEarlyHandler", "auction ended successfully", map[string]any{
		"auction_id": auctionID,
		"status":     ended.Status,
	})
}

// GetActiveAuctionsHandler handles GET /auctions/active
func (h *AuctionHandler) GetActiveAuctionsHandler(c *gin.Context) {
	summaries, err := h.service.GetActiveAuctions()
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetActiveAuctionsHandler: error retrieving active auctions", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, toSummaryResponses(summaries), "active auctions retrieved successfully")
}

// GetAuctionsByOwnerHandler handles GET /owners/:owner_id/auctions?status=
func (h *AuctionHandler) GetAuctionsByOwnerHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")
	statusFilter := c.Query("status")

	summaries, err := h.service.GetAuctionsByOwner(ownerID, statusFilter)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByOwnerHandler: error retrieving auctions", map[string]any{"owner_id": ownerID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, toSummaryResponses(summaries), "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByOwnerHandler", "auctions retrieved successfully", map[string]any{
		"owner_id": ownerID,
		"count":    len(summaries),
	})
}

// GetBuyerActivityHandler handles GET /buyers/:buyer_id/activity
func (h *AuctionHandler) GetBuyerActivityHandler(c *gin.Context) {
	buyerID := c.Param("buyer_id")
	activity, err := h.service.GetBuyerActivity(buyerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBuyerActivityHandler: error retrieving buyer activity", map[string]any{"buyer_id": buyerID, "error": err.Error()})
		return
	}

	if activity == nil {
		activity = []auction.BuyerAuctionActivity{}
	}

	utils.JSONResponse(c, http.StatusOK, activity, "buyer activity retrieved successfully")
	helpers.LogSuccess("GetBuyerActivityHandler", "buyer activity retrieved successfully", map[string]any{
		"buyer_id": buyerID,
		"count":    len(activity),
	})
}

func toSummaryResponses(summaries []auction.AuctionSummary) []helpers.AuctionSummaryResponse {
	responses := make([]helpers.AuctionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, helpers.AuctionSummaryResponse{Auction: s.Auction, BidCount: s.BidCount})
	}
	return responses
}
