package order

import (
	"context"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/modules/conflict"
	"gigmarket/internal/modules/reminder"
	"gigmarket/internal/notification"
	"gigmarket/internal/repository"
)

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, error)
	UpdateWhereStatus(ctx context.Context, id int64, from []domain.OrderStatus, fields map[string]any) (bool, error)
	SetDerivedState(ctx context.Context, id int64, expected, status domain.OrderStatus, count int) (bool, error)
	MarkFilledNotified(ctx context.Context, id int64, at time.Time) (bool, error)
	Cancel(ctx context.Context, id int64, from []domain.OrderStatus) ([]domain.Applicant, bool, error)
	Complete(ctx context.Context, id int64) ([]domain.Applicant, bool, error)
}

type ApplicantRepository interface {
	ListByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error)
	ListByWorker(ctx context.Context, workerID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error)
	CountByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) (int, error)
}

// Calendar reports the days a worker is already committed.
type Calendar interface {
	BusyDays(ctx context.Context, workerID int64, from time.Time) (conflict.DaySet, error)
}

type ReminderScheduler interface {
	Schedule(ctx context.Context, userID int64, order domain.Order, kind domain.ReminderType) (reminder.Outcome, error)
	CancelForOrder(ctx context.Context, orderID int64, kinds ...domain.ReminderType) error
}

type Notifier interface {
	Notify(ctx context.Context, notice notification.Notice, recipients ...int64) <-chan error
}
