// Package notify persists in-app notifications and mirrors them to the recipient's channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"

	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/metrics"
)

// Notification types.
const (
	TypeNearbyMatch            = "nearby_match"
	TypeMutualMatch            = "mutual_match"
	TypeHighCompatibilityMatch = "high_compatibility_match"
)

// TypeForIntent returns the one-way like notification type, e.g. "match_dating".
func TypeForIntent(intent string) string {
	return "match_" + intent
}

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, n *db.Notification) error
	ExistsBetweenSince(ctx context.Context, kind string, a, b uint64, since time.Time) (bool, error)
	ExistsFromSince(ctx context.Context, kind string, recipient, from uint64, since time.Time) (bool, error)
}

// Notification is what callers ask to deliver.
type Notification struct {
	Recipient      uint64
	From           uint64
	Type           string
	NotifiableType string
	NotifiableID   *uint64
	Data           map[string]any
}

type Service struct {
	store     Store
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewService(store Store, publisher events.Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, clock: clk, logger: logger}
}

// Notify persists n and publishes NotificationCreated. Self-notifications are dropped.
// A publish failure is logged, the row stays.
func (s *Service) Notify(ctx context.Context, n Notification) (*db.Notification, error) {
	if n.Recipient == n.From {
		return nil, nil
	}

	row := &db.Notification{
		UserID:         n.Recipient,
		FromUserID:     n.From,
		Type:           n.Type,
		NotifiableType: n.NotifiableType,
		NotifiableID:   n.NotifiableID,
		CreatedAt:      s.clock.Now(),
	}
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		row.Data = datatypes.JSON(b)
	}
	if err := s.store.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create %s notification: %w", n.Type, err)
	}
	metrics.NotificationsTotal.WithLabelValues(n.Type).Inc()

	evt := events.NotificationCreated{
		ID:         row.ID,
		Recipient:  row.UserID,
		Type:       row.Type,
		FromUserID: row.FromUserID,
		Data:       n.Data,
		CreatedAt:  row.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		metrics.EventPublishErrors.WithLabelValues(evt.EventName()).Inc()
		s.logger.Warn("notification publish failed", "type", n.Type, "recipient", n.Recipient, "err", err)
	}
	return row, nil
}

// RecentExists reports whether a notification of kind was exchanged between a and b,
// in either direction, within window.
func (s *Service) RecentExists(ctx context.Context, kind string, a, b uint64, window time.Duration) (bool, error) {
	return s.store.ExistsBetweenSince(ctx, kind, a, b, s.clock.Now().Add(-window))
}

// NotifyOnce delivers n unless the same sender already sent the same type to the same
// recipient within window. sent is false when the notification was suppressed.
func (s *Service) NotifyOnce(ctx context.Context, n Notification, window time.Duration) (sent bool, err error) {
	if n.Recipient == n.From {
		return false, nil
	}
	exists, err := s.store.ExistsFromSince(ctx, n.Type, n.Recipient, n.From, s.clock.Now().Add(-window))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	row, err := s.Notify(ctx, n)
	return row != nil, err
}
