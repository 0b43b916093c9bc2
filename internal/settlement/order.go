package settlement

import (
	"math"

	"github.com/shopspring/decimal"

	model "auction-service/internal/models"
)

// AuctionOrder is the payload sent to the order service when an auction is won.
type AuctionOrder struct {
	Source          string  `json:"source"`
	AuctionID       string  `json:"auction_id"`
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductQuantity float64 `json:"product_quantity"`
	ProductImageURL string  `json:"product_image_url"`

	WinnerID        string                `json:"winner_id"`
	WinnerName      string                `json:"winner_name"`
	WinnerEmail     string                `json:"winner_email"`
	DeliveryAddress model.DeliveryAddress `json:"delivery_address"`

	OwnerID        string   `json:"owner_id"`
	OwnerName      string   `json:"owner_name"`
	OwnerAddress   string   `json:"owner_address"`
	OwnerLatitude  *float64 `json:"owner_latitude,omitempty"`
	OwnerLongitude *float64 `json:"owner_longitude,omitempty"`

	WinningBidAmount  decimal.Decimal `json:"winning_bid_amount"`
	TotalDeliveryFee  decimal.Decimal `json:"total_delivery_fee"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DeliveryAvailable bool            `json:"delivery_available"`
}

// BuildAuctionOrder assembles the order payload for a won auction, including
// the delivery fee and the total amount owed by the winner.
func BuildAuctionOrder(auction model.Auction, winningBid model.Bid) AuctionOrder {
	deliveryFee := decimal.Zero
	if auction.DeliveryAvailable {
		deliveryFee = calculateDeliveryFee(auction, winningBid)
	}

	return AuctionOrder{
		Source:            "AUCTION",
		AuctionID:         auction.ID,
		ProductID:         auction.ProductID,
		ProductName:       auction.ProductName,
		ProductQuantity:   auction.ProductQuantity,
		ProductImageURL:   auction.ProductImageURL,
		WinnerID:          winningBid.BidderID,
		WinnerName:        winningBid.BidderName,
		WinnerEmail:       winningBid.BidderEmail,
		DeliveryAddress:   winningBid.DeliveryAddress,
		OwnerID:           auction.OwnerID,
		OwnerName:         auction.OwnerName,
		OwnerAddress:      auction.PickupAddress,
		OwnerLatitude:     auction.PickupLatitude,
		OwnerLongitude:    auction.PickupLongitude,
		WinningBidAmount:  winningBid.Amount,
		TotalDeliveryFee:  deliveryFee,
		TotalAmount:       winningBid.Amount.Add(deliveryFee),
		DeliveryAvailable: auction.DeliveryAvailable,
	}
}

// calculateDeliveryFee computes the distance-based delivery fee. The base fee
// covers the first 3 km; each additional 3 km interval adds the extra fee.
func calculateDeliveryFee(auction model.Auction, winningBid model.Bid) decimal.Decimal {
	if auction.BaseDeliveryFee == nil {
		return decimal.Zero
	}

	fee := *auction.BaseDeliveryFee

	addr := winningBid.DeliveryAddress
	if auction.PickupLatitude == nil || auction.PickupLongitude == nil ||
		addr.Latitude == nil || addr.Longitude == nil {
		return fee
	}

	distance := haversineKm(*auction.PickupLatitude, *auction.PickupLongitude, *addr.Latitude, *addr.Longitude)
	if distance > 3 && auction.ExtraFeePer3Km != nil {
		extraIntervals := int64(math.Ceil((distance - 3) / 3))
		fee = fee.Add(auction.ExtraFeePer3Km.Mul(decimal.NewFromInt(extraIntervals)))
	}

	return fee
}

// haversineKm returns the great-circle distance between two coordinates in km.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371

	latDistance := toRadians(lat2 - lat1)
	lonDistance := toRadians(lon2 - lon1)
	a := math.Sin(latDistance/2)*math.Sin(latDistance/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(lonDistance/2)*math.Sin(lonDistance/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
