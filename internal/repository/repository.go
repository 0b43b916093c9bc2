package repository

import (
	"time"

	model "auction-service/internal/models"
)

// AuctionStore defines the storage contract for auctions and their bid ledger.
//
// All mutations of an auction row go through a version check: the caller
// passes the ConcurrencyToken it read, and the store commits only if the
// stored token still matches, returning ErrConcurrencyConflict otherwise.
// AdmitBid atomically inserts the bid, updates the cached highest amount and
// bumps the token in a single unit of work.
type AuctionStore interface {
	CreateAuction(auction model.Auction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	UpdateAuction(auction model.Auction, expectedToken int64) (model.Auction, error)
	ListActiveAuctions(now time.Time) ([]model.Auction, error)
	ListExpiredAuctions(now time.Time) ([]model.Auction, error)
	ListDueDraftAuctions(now time.Time) ([]model.Auction, error)
	ListAuctionsByOwner(ownerID string, status *model.AuctionStatus) ([]model.Auction, error)

	AdmitBid(bid model.Bid, expectedToken int64) error
	TopBids(auctionID string, k int) ([]model.Bid, error)
	HighestBid(auctionID string) (model.Bid, error)
	CountBids(auctionID string) (int, error)
	PruneBids(auctionID string, keep int, exemptBidID string) (int, error)
	BidsByBidder(bidderID string) ([]model.Bid, error)
}
