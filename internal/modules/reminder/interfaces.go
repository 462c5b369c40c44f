package reminder

import (
	"context"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/notification"
)

type Repository interface {
	Create(ctx context.Context, rem *domain.ScheduledReminder) error
	ListDue(ctx context.Context, until time.Time, limit int) ([]domain.ScheduledReminder, error)
	MarkSent(ctx context.Context, id int64, at time.Time) (bool, error)
	DeleteUnsent(ctx context.Context, orderID int64, types ...domain.ReminderType) (int64, error)
	DeleteUnsentForUser(ctx context.Context, userID, orderID int64, types ...domain.ReminderType) (int64, error)
}

type OrderLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

// Deliverer sends one notice synchronously and reports success.
type Deliverer interface {
	Deliver(ctx context.Context, notice notification.Notice, userID int64) bool
}
