package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"
)

// PostgresStore is a gorm-backed implementation of AuctionStore. Conditional
// writes are expressed as UPDATE ... WHERE version = ? and checked through
// RowsAffected, so the version token arbitrates concurrent writers the same
// way as in MemoryStore.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore creates a store on top of an open gorm connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AutoMigrate creates or updates the auctions and bids tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Auction{}, &model.Bid{})
}

// CreateAuction inserts a new auction row with its version token initialized.
func (s *PostgresStore) CreateAuction(auction model.Auction) (model.Auction, error) {
	if auction.ID == "" {
		return model.Auction{}, fmt.Errorf("create auction: %w - missing auction ID", auctionerrors.ErrInvalidInput)
	}

	auction.ConcurrencyToken = 1
	now := time.Now().UTC()
	auction.CreatedAt = now
	auction.UpdatedAt = now

	if err := s.db.Create(&auction).Error; err != nil {
		return model.Auction{}, fmt.Errorf("create auction %s: %w", auction.ID, err)
	}
	return auction, nil
}

// GetAuction returns the auction with the given ID.
func (s *PostgresStore) GetAuction(auctionID string) (model.Auction, error) {
	var auction model.Auction
	err := s.db.First(&auction, "id = ?", auctionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// UpdateAuction commits the auction state iff the stored version token still
// equals expectedToken.
func (s *PostgresStore) UpdateAuction(auction model.Auction, expectedToken int64) (model.Auction, error) {
	auction.ConcurrencyToken = expectedToken + 1
	auction.UpdatedAt = time.Now().UTC()

	res := s.db.Model(&model.Auction{}).
		Where("id = ? AND version = ?", auction.ID, expectedToken).
		Select("*").Omit("id", "created_at").
		Updates(&auction)
	if res.Error != nil {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Auction{}, s.missingOrConflict("update auction", auction.ID)
	}
	return auction, nil
}

// ListActiveAuctions returns ACTIVE auctions whose bidding window is still
// open, ordered by end time ascending.
func (s *PostgresStore) ListActiveAuctions(now time.Time) ([]model.Auction, error) {
	var auctions []model.Auction
	err := s.db.
		Where("status = ? AND end_time > ?", model.StatusActive, now).
		Order("end_time ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list active auctions: %w", err)
	}
	return auctions, nil
}

// ListExpiredAuctions returns ACTIVE auctions whose end time has passed.
func (s *PostgresStore) ListExpiredAuctions(now time.Time) ([]model.Auction, error) {
	var auctions []model.Auction
	err := s.db.
		Where("status = ? AND end_time < ?", model.StatusActive, now).
		Order("end_time ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	return auctions, nil
}

// ListDueDraftAuctions returns DRAFT auctions whose start time has passed.
func (s *PostgresStore) ListDueDraftAuctions(now time.Time) ([]model.Auction, error) {
	var auctions []model.Auction
	err := s.db.
		Where("status = ? AND start_time <= ?", model.StatusDraft, now).
		Order("start_time ASC").
		Find(&auctions).Error
	if err != nil {
		return nil, fmt.Errorf("list due draft auctions: %w", err)
	}
	return auctions, nil
}

// ListAuctionsByOwner returns the owner's auctions, optionally filtered by status.
func (s *PostgresStore) ListAuctionsByOwner(ownerID string, status *model.AuctionStatus) ([]model.Auction, error) {
	query := s.db.Where("owner_id = ?", ownerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var auctions []model.Auction
	if err := query.Order("created_at DESC").Find(&auctions).Error; err != nil {
		return nil, fmt.Errorf("list auctions for owner %s: %w", ownerID, err)
	}
	return auctions, nil
}

// AdmitBid inserts the bid and updates the auction's cached highest amount in
// one transaction, guarded by the version token.
func (s *PostgresStore) AdmitBid(bid model.Bid, expectedToken int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Auction{}).
			Where("id = ? AND version = ?", bid.AuctionID, expectedToken).
			Updates(map[string]any{
				"current_highest_bid_amount": bid.Amount,
				"version":                    expectedToken + 1,
				"updated_at":                 time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("admit bid for auction %s: %w", bid.AuctionID, res.Error)
		}
		if res.RowsAffected == 0 {
			return s.missingOrConflict("admit bid for auction", bid.AuctionID)
		}

		if err := tx.Create(&bid).Error; err != nil {
			return fmt.Errorf("admit bid for auction %s: %w", bid.AuctionID, err)
		}
		return nil
	})
}

// TopBids returns up to k bids descending by amount, ties broken by ascending
// bid ID. k <= 0 returns the full ranked ledger.
func (s *PostgresStore) TopBids(auctionID string, k int) ([]model.Bid, error) {
	query := s.db.
		Where("auction_id = ?", auctionID).
		Order("amount DESC, id ASC")
	if k > 0 {
		query = query.Limit(k)
	}

	var bids []model.Bid
	if err := query.Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("list top bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// HighestBid returns the top-ranked bid for an auction.
func (s *PostgresStore) HighestBid(auctionID string) (model.Bid, error) {
	var bid model.Bid
	err := s.db.
		Where("auction_id = ?", auctionID).
		Order("amount DESC, id ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

// CountBids returns the number of retained bids for an auction.
func (s *PostgresStore) CountBids(auctionID string) (int, error) {
	var count int64
	err := s.db.Model(&model.Bid{}).
		Where("auction_id = ?", auctionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count bids for auction %s: %w", auctionID, err)
	}
	return int(count), nil
}

// PruneBids deletes bids ranked below the top `keep`, never removing the bid
// with exemptBidID.
func (s *PostgresStore) PruneBids(auctionID string, keep int, exemptBidID string) (int, error) {
	topIDs := s.db.Model(&model.Bid{}).
		Select("id").
		Where("auction_id = ?", auctionID).
		Order("amount DESC, id ASC").
		Limit(keep)

	query := s.db.
		Where("auction_id = ?", auctionID).
		Where("id NOT IN (?)", topIDs)
	if exemptBidID != "" {
		query = query.Where("id <> ?", exemptBidID)
	}

	res := query.Delete(&model.Bid{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune bids for auction %s: %w", auctionID, res.Error)
	}
	return int(res.RowsAffected), nil
}

// BidsByBidder returns all retained bids placed by a bidder across auctions.
func (s *PostgresStore) BidsByBidder(bidderID string) ([]model.Bid, error) {
	var bids []model.Bid
	err := s.db.
		Where("bidder_id = ?", bidderID).
		Order("placed_at ASC").
		Find(&bids).Error
	if err != nil {
		return nil, fmt.Errorf("list bids for bidder %s: %w", bidderID, err)
	}
	return bids, nil
}

// missingOrConflict distinguishes a vanished row from a version mismatch
// after a conditional write touched zero rows.
func (s *PostgresStore) missingOrConflict(op, auctionID string) error {
	var count int64
	if err := s.db.Model(&model.Auction{}).Where("id = ?", auctionID).Count(&count).Error; err != nil {
		return fmt.Errorf("%s %s: %w", op, auctionID, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %s: %w", op, auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, auctionID, auctionerrors.ErrConcurrencyConflict)
}
