package settlement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"auction-service/utils"

	model "auction-service/internal/models"
)

// Notifier delivers the won-auction event to the downstream order collaborator.
// Delivery is best-effort: the auction is already COMPLETED when NotifyWon is
// called, and a delivery failure never unwinds that state.
type Notifier interface {
	NotifyWon(auction model.Auction, winningBid model.Bid) error
}

// OrderServiceNotifier posts the auction order to the order service over HTTP.
type OrderServiceNotifier struct {
	baseURL string
	client  *http.Client
}

// NewOrderServiceNotifier creates a notifier targeting the order service at baseURL.
func NewOrderServiceNotifier(baseURL string, timeout time.Duration) *OrderServiceNotifier {
	return &OrderServiceNotifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NotifyWon sends the "create order from auction win" call to the order service.
func (n *OrderServiceNotifier) NotifyWon(auction model.Auction, winningBid model.Bid) error {
	order := BuildAuctionOrder(auction, winningBid)

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("notifier: failed to marshal order for auction %s: %w", auction.ID, err)
	}

	url := n.baseURL + "/api/orders/auction"
	resp, err := n.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: failed to reach order service for auction %s: %w", auction.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notifier: order service rejected auction %s: status %d: %s", auction.ID, resp.StatusCode, respBody)
	}

	utils.Info("auction order created in order service", map[string]any{
		"auction_id": auction.ID,
		"winner_id":  winningBid.BidderID,
		"amount":     winningBid.Amount.String(),
	})
	return nil
}
