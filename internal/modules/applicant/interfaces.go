package applicant

import (
	"context"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/modules/reminder"
	"gigmarket/internal/notification"
)

type ApplicantRepository interface {
	Create(ctx context.Context, a *domain.Applicant) error
	GetByID(ctx context.Context, id int64) (*domain.Applicant, error)
	FindActive(ctx context.Context, orderID, workerID int64) (*domain.Applicant, error)
	ListByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error)
	ListByWorker(ctx context.Context, workerID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error)
	CompareAndSetStatus(ctx context.Context, id int64, from, to domain.ApplicantStatus, extra map[string]any) (bool, error)
}

type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

// Reconciler re-derives an order's counter and status from its applicants.
type Reconciler interface {
	Reconcile(ctx context.Context, orderID int64) (*domain.Order, error)
}

type Calendar interface {
	Location() *time.Location
	DayKey(t time.Time) string
	AcceptedOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) ([]domain.Commitment, error)
	PendingOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) ([]domain.Commitment, error)
	HasAcceptedOnDay(ctx context.Context, workerID int64, day time.Time, excludeApplicantID int64) (bool, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type ReminderScheduler interface {
	Schedule(ctx context.Context, userID int64, order domain.Order, kind domain.ReminderType) (reminder.Outcome, error)
	CancelForUser(ctx context.Context, userID, orderID int64, kinds ...domain.ReminderType) error
}

type Notifier interface {
	Notify(ctx context.Context, notice notification.Notice, recipients ...int64) <-chan error
}
