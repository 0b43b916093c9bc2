package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
// The mutex only guards map access; cross-request write arbitration relies on
// the same version-token check the SQL implementation uses, so service-level
// behavior is identical across backends.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID
	bids     map[string][]model.Bid   // key: auctionID -> accepted bids
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateAuction stores a new auction with its version token initialized.
func (s *MemoryStore) CreateAuction(auction model.Auction) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if auction.ID == "" {
		return model.Auction{}, fmt.Errorf("create auction: %w - missing auction ID", auctionerrors.ErrInvalidInput)
	}
	if _, ok := s.auctions[auction.ID]; ok {
		return model.Auction{}, fmt.Errorf("create auction %s: %w - duplicate ID", auction.ID, auctionerrors.ErrInvalidInput)
	}

	auction.ConcurrencyToken = 1
	now := time.Now().UTC()
	auction.CreatedAt = now
	auction.UpdatedAt = now
	s.auctions[auction.ID] = auction

	return auction, nil
}

// GetAuction returns the auction with the given ID.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// UpdateAuction commits the given auction state iff the stored version token
// still equals expectedToken, bumping the token on success.
func (s *MemoryStore) UpdateAuction(auction model.Auction, expectedToken int64) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.auctions[auction.ID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.ID, auctionerrors.ErrAuctionNotFound)
	}
	if stored.ConcurrencyToken != expectedToken {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.ID, auctionerrors.ErrConcurrencyConflict)
	}

	auction.ConcurrencyToken = expectedToken + 1
	auction.CreatedAt = stored.CreatedAt
	auction.UpdatedAt = time.Now().UTC()
	s.auctions[auction.ID] = auction

	return auction, nil
}

// ListActiveAuctions returns ACTIVE auctions whose bidding window is still
// open, ordered by end time ascending.
func (s *MemoryStore) ListActiveAuctions(now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusActive && a.EndTime.After(now) {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EndTime.Before(active[j].EndTime) })
	return active, nil
}

// ListExpiredAuctions returns ACTIVE auctions whose end time has passed.
func (s *MemoryStore) ListExpiredAuctions(now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusActive && a.EndTime.Before(now) {
			expired = append(expired, a)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].EndTime.Before(expired[j].EndTime) })
	return expired, nil
}

// ListDueDraftAuctions returns DRAFT auctions whose start time has passed.
func (s *MemoryStore) ListDueDraftAuctions(now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusDraft && !a.StartTime.After(now) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].StartTime.Before(due[j].StartTime) })
	return due, nil
}

// ListAuctionsByOwner returns the owner's auctions, optionally filtered by status.
func (s *MemoryStore) ListAuctionsByOwner(ownerID string, status *model.AuctionStatus) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Auction
	for _, a := range s.auctions {
		if a.OwnerID != ownerID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// AdmitBid atomically records a bid, updates the auction's cached highest
// amount and bumps the version token. The bid and the cache update either
// both apply or neither does.
func (s *MemoryStore) AdmitBid(bid model.Bid, expectedToken int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("admit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.ConcurrencyToken != expectedToken {
		return fmt.Errorf("admit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrConcurrencyConflict)
	}

	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)

	amount := bid.Amount
	auction.CurrentHighestBidAmount = &amount
	auction.ConcurrencyToken = expectedToken + 1
	auction.UpdatedAt = time.Now().UTC()
	s.auctions[bid.AuctionID] = auction

	return nil
}

// TopBids returns up to k bids for an auction, descending by amount, ties
// broken by ascending bid ID. k <= 0 returns the full ranked ledger.
func (s *MemoryStore) TopBids(auctionID string, k int) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := rankBids(s.bids[auctionID])
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// HighestBid returns the top-ranked bid for an auction.
func (s *MemoryStore) HighestBid(auctionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := rankBids(s.bids[auctionID])
	if len(ranked) == 0 {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return ranked[0], nil
}

// CountBids returns the number of retained bids for an auction.
func (s *MemoryStore) CountBids(auctionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bids[auctionID]), nil
}

// PruneBids deletes bids ranked below the top `keep`, returning the number
// removed. The bid with exemptBidID is never removed.
func (s *MemoryStore) PruneBids(auctionID string, keep int, exemptBidID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranked := rankBids(s.bids[auctionID])
	if len(ranked) <= keep {
		return 0, nil
	}

	retained := make([]model.Bid, 0, keep+1)
	pruned := 0
	for i, b := range ranked {
		if i < keep || (exemptBidID != "" && b.ID == exemptBidID) {
			retained = append(retained, b)
			continue
		}
		pruned++
	}
	s.bids[auctionID] = retained

	return pruned, nil
}

// BidsByBidder returns all retained bids placed by a bidder across auctions.
func (s *MemoryStore) BidsByBidder(bidderID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bid
	for _, ledger := range s.bids {
		for _, b := range ledger {
			if b.BidderID == bidderID {
				result = append(result, b)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PlacedAt.Before(result[j].PlacedAt) })
	return result, nil
}

// rankBids returns a copy of bids sorted descending by amount, ties broken by
// ascending bid ID.
func rankBids(bids []model.Bid) []model.Bid {
	ranked := append([]model.Bid(nil), bids...)
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].Amount.Cmp(ranked[j].Amount)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}
