package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction represents a time-boxed listing accepting competitive bids.
// ConcurrencyToken guards every mutation: writers read the token, prepare
// their change, and commit only if the stored token is unchanged.
type Auction struct {
	ID               string          `json:"id" gorm:"primaryKey;column:id"`
	ConcurrencyToken int64           `json:"-" gorm:"column:version"`
	OwnerID          string          `json:"owner_id" gorm:"column:owner_id;index"`
	OwnerName        string          `json:"owner_name" gorm:"column:owner_name"`
	ProductID        string          `json:"product_id" gorm:"column:product_id"`
	ProductName      string          `json:"product_name" gorm:"column:product_name"`
	ProductQuantity  float64         `json:"product_quantity" gorm:"column:product_quantity"`
	ProductImageURL  string          `json:"product_image_url" gorm:"column:product_image_url"`
	Description      string          `json:"description" gorm:"column:description"`
	Status           AuctionStatus   `json:"status" gorm:"column:status;index"`
	StartTime        time.Time       `json:"start_time" gorm:"column:start_time"`
	EndTime          time.Time       `json:"end_time" gorm:"column:end_time"`
	StartingPrice    decimal.Decimal `json:"starting_price" gorm:"column:starting_price;type:numeric(10,2)"`

	// ReservePrice is the minimum acceptable winning amount; nil means no reserve.
	ReservePrice *decimal.Decimal `json:"reserve_price,omitempty" gorm:"column:reserve_price;type:numeric(10,2)"`

	// CurrentHighestBidAmount caches the amount of the top-ranked bid.
	// Invariant: equals max(amount) over the auction's bids, nil iff no bids.
	CurrentHighestBidAmount *decimal.Decimal `json:"current_highest_bid_amount,omitempty" gorm:"column:current_highest_bid_amount;type:numeric(10,2)"`

	// WinningBidID is set exactly once, when the auction completes with a winner.
	WinningBidID *string `json:"winning_bid_id,omitempty" gorm:"column:winning_bid_id"`

	// Delivery configuration for the won-auction order.
	DeliveryAvailable bool             `json:"delivery_available" gorm:"column:delivery_available"`
	BaseDeliveryFee   *decimal.Decimal `json:"base_delivery_fee,omitempty" gorm:"column:base_delivery_fee;type:numeric(10,2)"`
	ExtraFeePer3Km    *decimal.Decimal `json:"extra_fee_per_3km,omitempty" gorm:"column:extra_fee_per_3km;type:numeric(10,2)"`
	PickupAddress     string           `json:"pickup_address,omitempty" gorm:"column:pickup_address"`
	PickupLatitude    *float64         `json:"pickup_latitude,omitempty" gorm:"column:pickup_latitude"`
	PickupLongitude   *float64         `json:"pickup_longitude,omitempty" gorm:"column:pickup_longitude"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Bid represents an accepted bid on an auction. Bids are never updated after
// creation; ones outside the retained top-K window may be pruned.
type Bid struct {
	ID              string          `json:"id" gorm:"primaryKey;column:id"`
	AuctionID       string          `json:"auction_id" gorm:"column:auction_id;index"`
	BidderID        string          `json:"bidder_id" gorm:"column:bidder_id;index"`
	BidderName      string          `json:"bidder_name" gorm:"column:bidder_name"`
	BidderEmail     string          `json:"bidder_email" gorm:"column:bidder_email"`
	Amount          decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(10,2);index"`
	PlacedAt        time.Time       `json:"placed_at" gorm:"column:placed_at"`
	DeliveryAddress DeliveryAddress `json:"delivery_address" gorm:"embedded;embeddedPrefix:delivery_"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at"`
}

// DeliveryAddress is the bid-time delivery destination for the winning order.
type DeliveryAddress struct {
	StreetAddress string   `json:"street_address" gorm:"column:street_address"`
	City          string   `json:"city" gorm:"column:city"`
	District      string   `json:"district" gorm:"column:district"`
	Province      string   `json:"province" gorm:"column:province"`
	Zipcode       string   `json:"zipcode" gorm:"column:zipcode"`
	Latitude      *float64 `json:"latitude,omitempty" gorm:"column:latitude"`
	Longitude     *float64 `json:"longitude,omitempty" gorm:"column:longitude"`
}
