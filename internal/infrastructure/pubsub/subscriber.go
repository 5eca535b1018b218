package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Notification represents Gmail Pub/Sub notification
type Notification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Subscriber handles Pub/Sub messages
type Subscriber struct {
	client         *pubsub.Client
	subscriptionID string
	logger         *zap.Logger

	mu           sync.Mutex
	processedIDs map[uint64]bool
}

// NewSubscriber creates a new Pub/Sub subscriber
func NewSubscriber(ctx context.Context, projectID, subscriptionID string, logger *zap.Logger) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return newSubscriber(client, subscriptionID, logger), nil
}

func newSubscriber(client *pubsub.Client, subscriptionID string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		client:         client,
		subscriptionID: subscriptionID,
		logger:         logger.With(zap.String("subscription", subscriptionID)),
		processedIDs:   make(map[uint64]bool),
	}
}

// Listen blocks receiving notifications until ctx is done. Receive runs callbacks
// concurrently, so handler must be safe for concurrent use.
func (s *Subscriber) Listen(ctx context.Context, handler func(historyID uint64)) error {
	sub := s.client.Subscription(s.subscriptionID)

	s.logger.Info("pub/sub listener started")

	return sub.Receive(ctx, func(_ context.Context, m *pubsub.Message) {
		s.dispatch(m.Data, handler)
		m.Ack()
	})
}

// dispatch decodes one notification and calls handler unless the history id was
// already seen. Undecodable payloads are dropped.
func (s *Subscriber) dispatch(data []byte, handler func(historyID uint64)) bool {
	notification, err := parseNotification(data)
	if err != nil {
		s.logger.Warn("parse notification", zap.Error(err))
		return false
	}

	if !s.markProcessed(notification.HistoryID) {
		return false
	}

	s.logger.Info("new notification",
		zap.String("email_address", notification.EmailAddress),
		zap.Uint64("history_id", notification.HistoryID))

	handler(notification.HistoryID)
	return true
}

func (s *Subscriber) markProcessed(historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processedIDs[historyID] {
		return false
	}
	s.processedIDs[historyID] = true
	return true
}

// Close closes the Pub/Sub client
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func parseNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	if n.HistoryID == 0 {
		return nil, fmt.Errorf("notification without historyId")
	}
	return &n, nil
}
