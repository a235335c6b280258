package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oggyb/campus-match/internal/clock"
)

// Envelope is the wire format published on every channel.
type Envelope struct {
	ID     string    `json:"id"`
	Event  string    `json:"event"`
	Data   Event     `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

// RedisPublisher fans events out over Redis pub/sub, one PUBLISH per channel.
type RedisPublisher struct {
	client *redis.Client
	clock  clock.Clock
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, clk clock.Clock, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, clock: clk, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(Envelope{
		ID:     uuid.NewString(),
		Event:  e.EventName(),
		Data:   e,
		SentAt: p.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", e.EventName(), err)
	}

	for _, ch := range e.Channels() {
		receivers, err := p.client.Publish(ctx, ch, payload).Result()
		if err != nil {
			return fmt.Errorf("failed to publish %s on %s: %w", e.EventName(), ch, err)
		}
		p.logger.Debug("event published", "event", e.EventName(), "channel", ch, "receivers", receivers)
	}
	return nil
}
