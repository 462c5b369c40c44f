package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"gigmarket/internal/domain"

	"github.com/redis/go-redis/v9"
)

const BusChannel = "gigmarket:notifications"

// RedisBus publishes notifications through Redis so every API instance can
// deliver to the sessions it holds.
type RedisBus struct {
	client *redis.Client
	local  *Hub
	logger *slog.Logger
}

func NewRedisBus(client *redis.Client, local *Hub, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, local: local, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, BusChannel, data).Err()
}

// Run relays bus messages to the local hub until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, BusChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("subscribed to notification bus", "channel", BusChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.logger.Warn("invalid bus payload", "error", err)
				continue
			}
			_ = b.local.Publish(ctx, &n)
		}
	}
}
