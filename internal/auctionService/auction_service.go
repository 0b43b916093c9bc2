package auction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"
	"auction-service/internal/repository"
	"auction-service/internal/settlement"
	"auction-service/utils"
)

const (
	// DefaultMaxRetainedBids bounds the live bid ledger per auction.
	DefaultMaxRetainedBids = 5
	// DefaultAdmissionRetries bounds internal retries on a version conflict.
	DefaultAdmissionRetries = 3
)

// AuctionService implements bid admission, the auction lifecycle and
// expiry resolution on top of an AuctionStore.
type AuctionService struct {
	store            repository.AuctionStore
	notifier         settlement.Notifier
	maxRetainedBids  int
	admissionRetries int
	now              func() time.Time
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(store repository.AuctionStore, notifier settlement.Notifier) *AuctionService {
	return &AuctionService{
		store:            store,
		notifier:         notifier,
		maxRetainedBids:  DefaultMaxRetainedBids,
		admissionRetries: DefaultAdmissionRetries,
		now:              time.Now,
	}
}

// SetMaxRetainedBids overrides the retained-bid count (K).
func (s *AuctionService) SetMaxRetainedBids(k int) {
	if k > 0 {
		s.maxRetainedBids = k
	}
}

// CreateAuctionInput carries the fields needed to open a new listing.
type CreateAuctionInput struct {
	OwnerID           string
	OwnerName         string
	ProductID         string
	ProductName       string
	ProductQuantity   float64
	ProductImageURL   string
	Description       string
	StartTime         time.Time
	EndTime           time.Time
	StartingPrice     decimal.Decimal
	ReservePrice      *decimal.Decimal
	DeliveryAvailable bool
	BaseDeliveryFee   *decimal.Decimal
	ExtraFeePer3Km    *decimal.Decimal
	PickupAddress     string
	PickupLatitude    *float64
	PickupLongitude   *float64
}

// PlaceBidInput carries a bidder's offer on an auction.
type PlaceBidInput struct {
	BidderID        string
	BidderName      string
	BidderEmail     string
	Amount          decimal.Decimal
	DeliveryAddress model.DeliveryAddress
}

// AuctionDetail is an auction together with its retained leaderboard.
type AuctionDetail struct {
	Auction       model.Auction
	TopBids       []model.Bid
	TotalBidCount int
}

// AuctionSummary is a listing-page view of an auction.
type AuctionSummary struct {
	Auction  model.Auction
	BidCount int
}

// BuyerAuctionActivity describes one of a buyer's bids in the context of its auction.
type BuyerAuctionActivity struct {
	AuctionID         string               `json:"auction_id"`
	ProductName       string               `json:"product_name"`
	ProductImageURL   string               `json:"product_image_url"`
	AuctionStatus     model.AuctionStatus  `json:"auction_status"`
	AuctionEndTime    time.Time            `json:"auction_end_time"`
	MyBid             decimal.Decimal      `json:"my_bid"`
	CurrentHighestBid *decimal.Decimal     `json:"current_highest_bid,omitempty"`
	IsWinning         bool                 `json:"is_winning"`
	HasWon            bool                 `json:"has_won"`
	MyBidRank         int                  `json:"my_bid_rank"`
}

// CreateAuction validates and stores a new auction. The auction opens ACTIVE
// when its start time is not in the future, DRAFT otherwise.
func (s *AuctionService) CreateAuction(input CreateAuctionInput) (model.Auction, error) {
	if input.OwnerID == "" || input.ProductID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing owner or product reference", auctionerrors.ErrInvalidInput)
	}
	if !input.EndTime.After(input.StartTime) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidInput)
	}
	now := s.now().UTC()
	if !input.EndTime.After(now) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidInput)
	}
	if !input.StartingPrice.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - starting price must be positive", auctionerrors.ErrInvalidInput)
	}
	if input.ReservePrice != nil && !input.ReservePrice.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - reserve price must be positive", auctionerrors.ErrInvalidInput)
	}

	status := model.StatusActive
	if input.StartTime.After(now) {
		status = model.StatusDraft
	}

	auction := model.Auction{
		ID:                utils.GenerateID(),
		OwnerID:           input.OwnerID,
		OwnerName:         input.OwnerName,
		ProductID:         input.ProductID,
		ProductName:       input.ProductName,
		ProductQuantity:   input.ProductQuantity,
		ProductImageURL:   input.ProductImageURL,
		Description:       input.Description,
		Status:            status,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		StartingPrice:     input.StartingPrice,
		ReservePrice:      input.ReservePrice,
		DeliveryAvailable: input.DeliveryAvailable,
		BaseDeliveryFee:   input.BaseDeliveryFee,
		ExtraFeePer3Km:    input.ExtraFeePer3Km,
		PickupAddress:     input.PickupAddress,
		PickupLatitude:    input.PickupLatitude,
		PickupLongitude:   input.PickupLongitude,
	}

	created, err := s.store.CreateAuction(auction)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for owner %s: %w", input.OwnerID, err)
	}
	return created, nil
}

// GetAuction returns an auction with its top retained bids and total bid count.
func (s *AuctionService) GetAuction(auctionID string) (AuctionDetail, error) {
	if auctionID == "" {
		return AuctionDetail{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return AuctionDetail{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	topBids, err := s.store.TopBids(auctionID, s.maxRetainedBids)
	if err != nil {
		return AuctionDetail{}, fmt.Errorf("service: failed to get top bids for auction %s: %w", auctionID, err)
	}

	count, err := s.store.CountBids(auctionID)
	if err != nil {
		return AuctionDetail{}, fmt.Errorf("service: failed to count bids for auction %s: %w", auctionID, err)
	}

	return AuctionDetail{Auction: auction, TopBids: topBids, TotalBidCount: count}, nil
}

// PlaceBid validates and records a bid on an auction.
//
// Admission runs under optimistic concurrency: the bid is inserted together
// with the cached-highest update iff the auction's version token is unchanged
// since the read. A conflict means another bid landed in between; the whole
// admission is retried from a fresh read up to admissionRetries times, since
// conflicts are momentary. Retention pruning fires after a successful
// admission, within the same call.
func (s *AuctionService) PlaceBid(auctionID string, input PlaceBidInput) (model.Bid, error) {
	if auctionID == "" || input.BidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if !input.Amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 1; attempt <= s.admissionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		if auction.Status != model.StatusActive {
			return model.Bid{}, fmt.Errorf("service: %w - auction %s is %s", auctionerrors.ErrInvalidState, auctionID, auction.Status)
		}
		if !s.now().Before(auction.EndTime) {
			return model.Bid{}, fmt.Errorf("service: %w - auction %s closed at %s", auctionerrors.ErrAuctionEnded, auctionID, auction.EndTime.UTC().Format(time.RFC3339))
		}

		if auction.CurrentHighestBidAmount != nil {
			if !input.Amount.GreaterThan(*auction.CurrentHighestBidAmount) {
				return model.Bid{}, fmt.Errorf("service: %w - bid must exceed current highest bid %s", auctionerrors.ErrBidTooLow, auction.CurrentHighestBidAmount.String())
			}
		} else if input.Amount.LessThan(auction.StartingPrice) {
			return model.Bid{}, fmt.Errorf("service: %w - bid must be at least the starting price %s", auctionerrors.ErrBidTooLow, auction.StartingPrice.String())
		}

		placedAt := s.now().UTC()
		bid := model.Bid{
			ID:              utils.GenerateID(),
			AuctionID:       auctionID,
			BidderID:        input.BidderID,
			BidderName:      input.BidderName,
			BidderEmail:     input.BidderEmail,
			Amount:          input.Amount,
			PlacedAt:        placedAt,
			DeliveryAddress: input.DeliveryAddress,
			CreatedAt:       placedAt,
		}

		err = s.store.AdmitBid(bid, auction.ConcurrencyToken)
		if err == nil {
			s.pruneRetainedBids(auction)
			return bid, nil
		}
		if !errors.Is(err, auctionerrors.ErrConcurrencyConflict) {
			return model.Bid{}, fmt.Errorf("service: failed to admit bid on auction %s by bidder %s: %w", auctionID, input.BidderID, err)
		}

		lastErr = err
		utils.Warn("concurrent bid detected, retrying admission", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  input.BidderID,
			"attempt":    attempt,
		})
	}

	return model.Bid{}, fmt.Errorf("service: admission on auction %s still conflicting after %d attempts: %w", auctionID, s.admissionRetries, lastErr)
}

// pruneRetainedBids trims the ledger to the top-K bids. Failures are logged
// only: pruning is storage management, not a correctness requirement.
func (s *AuctionService) pruneRetainedBids(auction model.Auction) {
	exempt := ""
	if auction.WinningBidID != nil {
		exempt = *auction.WinningBidID
	}

	pruned, err := s.store.PruneBids(auction.ID, s.maxRetainedBids, exempt)
	if err != nil {
		utils.Error("failed to prune bids", map[string]any{"auction_id": auction.ID, "error": err.Error()})
		return
	}
	if pruned > 0 {
		utils.Info("pruned excess bids", map[string]any{"auction_id": auction.ID, "pruned": pruned})
	}
}

// UpdateReservePrice changes the reserve price of an ACTIVE auction.
func (s *AuctionService) UpdateReservePrice(auctionID string, price decimal.Decimal) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	if !price.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - reserve price must be positive", auctionerrors.ErrInvalidInput)
	}

	return s.mutateAuction(auctionID, func(auction *model.Auction) error {
		if auction.Status != model.StatusActive {
			return fmt.Errorf("service: %w - reserve price can only change while auction is active, auction %s is %s", auctionerrors.ErrInvalidState, auctionID, auction.Status)
		}
		auction.ReservePrice = &price
		return nil
	})
}

// CancelAuction moves a non-terminal auction to CANCELLED.
func (s *AuctionService) CancelAuction(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	return s.mutateAuction(auctionID, func(auction *model.Auction) error {
		if auction.Status.IsTerminal() {
			return fmt.Errorf("service: %w - cannot cancel auction %s in state %s", auctionerrors.ErrInvalidState, auctionID, auction.Status)
		}
		auction.Status = model.StatusCancelled
		return nil
	})
}

// EndAuctionEarly completes an ACTIVE auction immediately, awarding the
// highest bid. Re-running on an already resolved auction fails the status
// guard without mutating anything.
func (s *AuctionService) EndAuctionEarly(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	var winningBid model.Bid
	updated, err := s.mutateAuction(auctionID, func(auction *model.Auction) error {
		if auction.Status != model.StatusActive {
			return fmt.Errorf("service: %w - only active auctions can be ended early, auction %s is %s", auctionerrors.ErrInvalidState, auctionID, auction.Status)
		}

		highest, err := s.store.HighestBid(auctionID)
		if err != nil {
			return fmt.Errorf("service: cannot end auction %s early: %w", auctionID, err)
		}

		winningBid = highest
		auction.WinningBidID = &highest.ID
		auction.Status = model.StatusCompleted
		auction.EndTime = s.now().UTC()
		return nil
	})
	if err != nil {
		return model.Auction{}, err
	}

	s.notifyWon(updated, winningBid)

	utils.Info("auction ended early", map[string]any{
		"auction_id": auctionID,
		"winner_id":  winningBid.BidderID,
		"amount":     winningBid.Amount.String(),
	})
	return updated, nil
}

// ActivateDueAuctions promotes DRAFT auctions whose start time has passed to
// ACTIVE. Returns the number activated.
func (s *AuctionService) ActivateDueAuctions() (int, error) {
	due, err := s.store.ListDueDraftAuctions(s.now())
	if err != nil {
		return 0, fmt.Errorf("service: failed to list due draft auctions: %w", err)
	}

	activated := 0
	for _, auction := range due {
		auction.Status = model.StatusActive
		if _, err := s.store.UpdateAuction(auction, auction.ConcurrencyToken); err != nil {
			utils.Warn("failed to activate auction, leaving for next sweep", map[string]any{
				"auction_id": auction.ID,
				"error":      err.Error(),
			})
			continue
		}
		activated++
	}
	return activated, nil
}

// ProcessExpiredAuctions resolves every ACTIVE auction whose end time has
// passed. Each auction is resolved independently; an error on one is logged
// and does not block the others. Returns the number resolved.
func (s *AuctionService) ProcessExpiredAuctions() (int, error) {
	expired, err := s.store.ListExpiredAuctions(s.now())
	if err != nil {
		return 0, fmt.Errorf("service: failed to list expired auctions: %w", err)
	}

	resolved := 0
	for _, auction := range expired {
		if err := s.resolveExpired(auction.ID); err != nil {
			utils.Error("failed to resolve expired auction, leaving for next sweep", map[string]any{
				"auction_id": auction.ID,
				"error":      err.Error(),
			})
			continue
		}
		resolved++
	}
	return resolved, nil
}

// resolveExpired settles one expired auction: EXPIRED when no bids exist or
// the reserve is unmet, COMPLETED with a winner otherwise.
//
// The auction is re-read so the status guard sees the latest state; a
// concurrent resolver losing the version check is left for the next sweep
// tick, where the guard will find the auction already terminal.
func (s *AuctionService) resolveExpired(auctionID string) error {
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.Status != model.StatusActive {
		return nil
	}
	if auction.EndTime.After(s.now()) {
		return nil
	}

	highest, err := s.store.HighestBid(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return fmt.Errorf("service: failed to get highest bid for auction %s: %w", auctionID, err)
	}

	noBids := errors.Is(err, auctionerrors.ErrNoBids)
	reserveUnmet := !noBids && auction.ReservePrice != nil && highest.Amount.LessThan(*auction.ReservePrice)

	if noBids || reserveUnmet {
		auction.Status = model.StatusExpired
		if _, err := s.store.UpdateAuction(auction, auction.ConcurrencyToken); err != nil {
			return fmt.Errorf("service: failed to expire auction %s: %w", auctionID, err)
		}
		reason := "no bids"
		if reserveUnmet {
			reason = "reserve price not met"
		}
		utils.Info("auction expired", map[string]any{"auction_id": auctionID, "reason": reason})
		return nil
	}

	auction.WinningBidID = &highest.ID
	auction.Status = model.StatusCompleted
	updated, err := s.store.UpdateAuction(auction, auction.ConcurrencyToken)
	if err != nil {
		return fmt.Errorf("service: failed to complete auction %s: %w", auctionID, err)
	}

	s.notifyWon(updated, highest)

	utils.Info("auction completed", map[string]any{
		"auction_id": auctionID,
		"winner_id":  highest.BidderID,
		"amount":     highest.Amount.String(),
	})
	return nil
}

// notifyWon delivers the won-auction event. Delivery failures are logged and
// never unwind the auction's committed state.
func (s *AuctionService) notifyWon(auction model.Auction, winningBid model.Bid) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyWon(auction, winningBid); err != nil {
		utils.Error("failed to deliver won-auction notification", map[string]any{
			"auction_id": auction.ID,
			"winner_id":  winningBid.BidderID,
			"error":      err.Error(),
		})
	}
}

// GetActiveAuctions returns all auctions currently open for bidding.
func (s *AuctionService) GetActiveAuctions() ([]AuctionSummary, error) {
	auctions, err := s.store.ListActiveAuctions(s.now())
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active auctions: %w", err)
	}
	return s.summarize(auctions)
}

// GetAuctionsByOwner returns an owner's auctions, optionally narrowed by a
// listing filter (ONGOING, SOLD, CANCELLED). Unknown filters select all.
func (s *AuctionService) GetAuctionsByOwner(ownerID, statusFilter string) ([]AuctionSummary, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("service: %w - empty owner ID", auctionerrors.ErrInvalidInput)
	}

	var status *model.AuctionStatus
	if parsed, ok := model.ParseStatusFilter(statusFilter); ok {
		status = &parsed
	}

	auctions, err := s.store.ListAuctionsByOwner(ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for owner %s: %w", ownerID, err)
	}
	return s.summarize(auctions)
}

// GetBuyerActivity returns the buyer's bids annotated with their rank and
// outcome within each auction.
func (s *AuctionService) GetBuyerActivity(bidderID string) ([]BuyerAuctionActivity, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.store.BidsByBidder(bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids for bidder %s: %w", bidderID, err)
	}

	activity := make([]BuyerAuctionActivity, 0, len(bids))
	for _, bid := range bids {
		auction, err := s.store.GetAuction(bid.AuctionID)
		if err != nil {
			if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
				continue
			}
			return nil, fmt.Errorf("service: failed to load auction %s: %w", bid.AuctionID, err)
		}

		topBids, err := s.store.TopBids(bid.AuctionID, s.maxRetainedBids)
		if err != nil {
			return nil, fmt.Errorf("service: failed to get top bids for auction %s: %w", bid.AuctionID, err)
		}

		rank := 0
		for i, top := range topBids {
			if top.BidderID == bidderID {
				rank = i + 1
				break
			}
		}

		isWinning := len(topBids) > 0 && topBids[0].BidderID == bidderID
		hasWon := auction.Status == model.StatusCompleted &&
			auction.WinningBidID != nil && *auction.WinningBidID == bid.ID

		activity = append(activity, BuyerAuctionActivity{
			AuctionID:         auction.ID,
			ProductName:       auction.ProductName,
			ProductImageURL:   auction.ProductImageURL,
			AuctionStatus:     auction.Status,
			AuctionEndTime:    auction.EndTime,
			MyBid:             bid.Amount,
			CurrentHighestBid: auction.CurrentHighestBidAmount,
			IsWinning:         isWinning,
			HasWon:            hasWon,
			MyBidRank:         rank,
		})
	}
	return activity, nil
}

// summarize attaches bid counts to a list of auctions.
func (s *AuctionService) summarize(auctions []model.Auction) ([]AuctionSummary, error) {
	summaries := make([]AuctionSummary, 0, len(auctions))
	for _, a := range auctions {
		count, err := s.store.CountBids(a.ID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to count bids for auction %s: %w", a.ID, err)
		}
		summaries = append(summaries, AuctionSummary{Auction: a, BidCount: count})
	}
	return summaries, nil
}

// mutateAuction applies fn to a freshly loaded auction and commits it with a
// version check, retrying on conflict up to admissionRetries times. fn runs
// again on each retry against the re-read state, so guards stay valid.
func (s *AuctionService) mutateAuction(auctionID string, fn func(*model.Auction) error) (model.Auction, error) {
	var lastErr error
	for attempt := 1; attempt <= s.admissionRetries; attempt++ {
		auction, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Auction{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		token := auction.ConcurrencyToken
		if err := fn(&auction); err != nil {
			return model.Auction{}, err
		}

		updated, err := s.store.UpdateAuction(auction, token)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, auctionerrors.ErrConcurrencyConflict) {
			return model.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
		}
		lastErr = err
	}
	return model.Auction{}, fmt.Errorf("service: update on auction %s still conflicting after %d attempts: %w", auctionID, s.admissionRetries, lastErr)
}
