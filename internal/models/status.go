package models

// AuctionStatus is the closed set of lifecycle states for an auction.
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "DRAFT"     // created, bidding window not open yet
	StatusActive    AuctionStatus = "ACTIVE"    // live and accepting bids
	StatusCompleted AuctionStatus = "COMPLETED" // ended with a winner
	StatusCancelled AuctionStatus = "CANCELLED" // cancelled by the owner
	StatusExpired   AuctionStatus = "EXPIRED"   // ended without a sale
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s AuctionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	case StatusDraft, StatusActive:
		return false
	}
	return false
}

// ParseStatusFilter maps an owner-facing listing filter to an auction status.
// The second return value is false when the filter selects all statuses.
func ParseStatusFilter(filter string) (AuctionStatus, bool) {
	switch filter {
	case "ONGOING":
		return StatusActive, true
	case "SOLD":
		return StatusCompleted, true
	case "CANCELLED":
		return StatusCancelled, true
	default:
		return "", false
	}
}
