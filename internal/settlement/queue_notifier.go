package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	model "auction-service/internal/models"
)

// QueueNotifier publishes the won-auction order to a durable message queue
// instead of calling the order service inline, so delivery survives order
// service downtime.
type QueueNotifier struct {
	url       string
	queueName string
}

// NewQueueNotifier creates a notifier publishing to queueName on the broker at url.
func NewQueueNotifier(url, queueName string) *QueueNotifier {
	return &QueueNotifier{url: url, queueName: queueName}
}

// NotifyWon publishes the auction order as a persistent message. The
// connection is opened per publish; wins are rare enough that connection
// reuse is not worth the reconnect handling.
func (n *QueueNotifier) NotifyWon(auction model.Auction, winningBid model.Bid) error {
	order := BuildAuctionOrder(auction, winningBid)

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("notifier: failed to dial broker for auction %s: %w", auction.ID, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("notifier: failed to open channel for auction %s: %w", auction.ID, err)
	}
	defer func() { _ = ch.Close() }()

	// Durable queue so messages survive broker restarts.
	if _, err := ch.QueueDeclare(n.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("notifier: failed to declare queue for auction %s: %w", auction.ID, err)
	}

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("notifier: failed to marshal order for auction %s: %w", auction.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx, "", n.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("notifier: failed to publish order for auction %s: %w", auction.ID, err)
	}

	return nil
}
