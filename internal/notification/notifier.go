package notification

import (
	"context"
	"fmt"
	"log/slog"

	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/pkg/background"
)

type Translator interface {
	TranslateBatch(ctx context.Context, userIDs []int64, key string, params i18n.Params) map[int64]i18n.Message
}

// Notice is a templated notification before localisation.
type Notice struct {
	Key      string
	Params   i18n.Params
	Category domain.NotificationCategory
	Data     map[string]any
}

// Notifier localises notices and hands them to a Sender, retrying a failed
// send once. Notify never blocks the caller.
type Notifier struct {
	runner     *background.Runner
	translator Translator
	sender     Sender
	logger     *slog.Logger
}

func NewNotifier(runner *background.Runner, translator Translator, sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		runner:     runner,
		translator: translator,
		sender:     sender,
		logger:     logger,
	}
}

// Notify delivers the notice to recipients in the background. The returned
// channel reports the outcome and may be ignored.
func (n *Notifier) Notify(ctx context.Context, notice Notice, recipients ...int64) <-chan error {
	recipients = uniqueIDs(recipients)
	return n.runner.Go(ctx, "notify:"+notice.Key, func(ctx context.Context) error {
		if len(recipients) == 0 {
			return nil
		}
		failed := n.deliver(ctx, notice, recipients)
		if len(failed) > 0 {
			return fmt.Errorf("notification %s not delivered to %v", notice.Key, failed)
		}
		return nil
	})
}

// Deliver sends synchronously and reports whether the recipient got it.
func (n *Notifier) Deliver(ctx context.Context, notice Notice, userID int64) bool {
	return len(n.deliver(ctx, notice, []int64{userID})) == 0
}

func (n *Notifier) deliver(ctx context.Context, notice Notice, recipients []int64) []int64 {
	messages := n.translator.TranslateBatch(ctx, recipients, notice.Key, notice.Params)

	data := make(map[string]any, len(notice.Data)+1)
	for k, v := range notice.Data {
		data[k] = v
	}
	data["type"] = notice.Key

	var failed []int64
	for _, userID := range recipients {
		msg := messages[userID]
		if n.sender.Send(ctx, userID, msg.Title, msg.Body, data, notice.Category) {
			continue
		}
		n.logger.Warn("notification send failed, retrying", "user_id", userID, "key", notice.Key)
		if n.sender.Send(ctx, userID, msg.Title, msg.Body, data, notice.Category) {
			continue
		}
		n.logger.Error("notification dropped", "user_id", userID, "key", notice.Key)
		failed = append(failed, userID)
	}
	return failed
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
