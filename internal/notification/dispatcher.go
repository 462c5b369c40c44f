package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gigmarket/internal/domain"
)

// Sender is the dispatch boundary used by lifecycle code. It reports whether
// the message was accepted for delivery.
type Sender interface {
	Send(ctx context.Context, userID int64, title, body string, data map[string]any, category domain.NotificationCategory) bool
}

type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type TokenStore interface {
	ListTokens(ctx context.Context, userID int64) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// Publisher pushes a stored notification to live websocket sessions.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Pusher delivers to mobile devices and returns tokens the provider no longer
// recognises.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// Dispatcher stores the in-app notification, then fans it out to realtime
// and push channels. Only the store write decides success.
type Dispatcher struct {
	store     Store
	publisher Publisher
	tokens    TokenStore
	pusher    Pusher
	logger    *slog.Logger
	now       func() time.Time
}

func NewDispatcher(store Store, publisher Publisher, tokens TokenStore, pusher Pusher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		tokens:    tokens,
		pusher:    pusher,
		logger:    logger,
		now:       time.Now,
	}
}

func (d *Dispatcher) Send(ctx context.Context, userID int64, title, body string, data map[string]any, category domain.NotificationCategory) bool {
	n := &domain.Notification{
		UserID:    userID,
		Category:  category,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.logger.Error("store notification", "user_id", userID, "category", category, "error", err)
		return false
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, n); err != nil {
			d.logger.Warn("publish notification", "user_id", userID, "notification_id", n.ID, "error", err)
		}
	}

	d.push(ctx, n)
	return true
}

func (d *Dispatcher) push(ctx context.Context, n *domain.Notification) {
	if d.pusher == nil || d.tokens == nil {
		return
	}
	tokens, err := d.tokens.ListTokens(ctx, n.UserID)
	if err != nil {
		d.logger.Warn("list device tokens", "user_id", n.UserID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	payload := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		payload[k] = fmt.Sprint(v)
	}
	payload["notification_id"] = fmt.Sprint(n.ID)
	payload["category"] = string(n.Category)

	stale, err := d.pusher.Push(ctx, tokens, n.Title, n.Body, payload)
	if err != nil {
		d.logger.Warn("push notification", "user_id", n.UserID, "error", err)
	}
	if len(stale) > 0 {
		if err := d.tokens.DeleteTokens(ctx, stale); err != nil {
			d.logger.Warn("delete stale device tokens", "user_id", n.UserID, "error", err)
		}
	}
}
