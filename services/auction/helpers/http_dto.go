package helpers

import (
	"time"

	"github.com/shopspring/decimal"

	model "auction-service/internal/models"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	OwnerID           string           `json:"owner_id" binding:"required"`
	OwnerName         string           `json:"owner_name"`
	ProductID         string           `json:"product_id" binding:"required"`
	ProductName       string           `json:"product_name" binding:"required"`
	ProductQuantity   float64          `json:"product_quantity"`
	ProductImageURL   string           `json:"product_image_url"`
	Description       string           `json:"description"`
	StartTime         time.Time        `json:"start_time" binding:"required"`
	EndTime           time.Time        `json:"end_time" binding:"required"`
	StartingPrice     decimal.Decimal  `json:"starting_price" binding:"required"`
	ReservePrice      *decimal.Decimal `json:"reserve_price"`
	DeliveryAvailable bool             `json:"delivery_available"`
	BaseDeliveryFee   *decimal.Decimal `json:"base_delivery_fee"`
	ExtraFeePer3Km    *decimal.Decimal `json:"extra_fee_per_3km"`
	PickupAddress     string           `json:"pickup_address"`
	PickupLatitude    *float64         `json:"pickup_latitude"`
	PickupLongitude   *float64         `json:"pickup_longitude"`
}

type PlaceBidRequest struct {
	BidderID        string                `json:"bidder_id" binding:"required"`
	BidderName      string                `json:"bidder_name"`
	BidderEmail     string                `json:"bidder_email"`
	Amount          decimal.Decimal       `json:"amount" binding:"required"`
	DeliveryAddress model.DeliveryAddress `json:"delivery_address"`
}

type UpdateReservePriceRequest struct {
	ReservePrice decimal.Decimal `json:"reserve_price" binding:"required"`
}

type BidResponse struct {
	BidID      string          `json:"bid_id"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	BidderName string          `json:"bidder_name"`
	Amount     decimal.Decimal `json:"amount"`
	PlacedAt   string          `json:"placed_at"`
}

type AuctionDetailResponse struct {
	Auction       model.Auction `json:"auction"`
	TopBids       []BidResponse `json:"top_bids"`
	TotalBidCount int           `json:"total_bid_count"`
}

type AuctionSummaryResponse struct {
	Auction  model.Auction `json:"auction"`
	BidCount int           `json:"bid_count"`
}

// NewBidResponse converts a stored bid into its wire form.
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.ID,
		AuctionID:  bid.AuctionID,
		BidderID:   bid.BidderID,
		BidderName: bid.BidderName,
		Amount:     bid.Amount,
		PlacedAt:   bid.PlacedAt.UTC().Format(time.RFC3339),
	}
}

// NewBidResponses converts a bid slice, never returning nil.
func NewBidResponses(bids []model.Bid) []BidResponse {
	responses := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		responses = append(responses, NewBidResponse(b))
	}
	return responses
}
