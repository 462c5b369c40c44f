package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/notification"
	"gigmarket/internal/repository"
)

const sweepBatchLimit = 500

type Outcome int

const (
	// OutcomeSkipped means the reminder date had already passed.
	OutcomeSkipped Outcome = iota
	OutcomeScheduled
	// OutcomeDispatched means the reminder was close enough to send now.
	OutcomeDispatched
	// OutcomeDuplicate means an identical reminder already exists.
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "skipped"
	}
}

type Config struct {
	Location       *time.Location
	WorkHour       int
	CompleteHour   int
	FastPathWindow time.Duration
	SweepWindow    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Location:       time.UTC,
		WorkHour:       18,
		CompleteHour:   19,
		FastPathWindow: 5 * time.Minute,
		SweepWindow:    15 * time.Minute,
	}
}

// SweepResult summarises one pass over due reminders.
type SweepResult struct {
	Due        int `json:"due"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Suppressed int `json:"suppressed"`
}

type Scheduler struct {
	repo     Repository
	orders   OrderLookup
	notifier Deliverer
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(repo Repository, orders OrderLookup, notifier Deliverer, cfg Config, logger *slog.Logger, opts ...Option) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReminderDate places the reminder on the local calendar relative to the
// service date: the evening before for work, the evening after for completion.
func (s *Scheduler) ReminderDate(serviceDate time.Time, kind domain.ReminderType) time.Time {
	local := serviceDate.In(s.cfg.Location)
	offset, hour := -1, s.cfg.WorkHour
	if kind == domain.ReminderCompleteWork {
		offset, hour = 1, s.cfg.CompleteHour
	}
	day := local.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, s.cfg.Location).UTC()
}

// Schedule records a reminder for userID about order. Past dates are
// skipped, dates inside the fast-path window are sent right away and stored
// as already sent.
func (s *Scheduler) Schedule(ctx context.Context, userID int64, order domain.Order, kind domain.ReminderType) (Outcome, error) {
	at := s.ReminderDate(order.ServiceDate, kind)
	now := s.now()
	if at.Before(now) {
		s.logger.Debug("reminder date passed, skipping",
			"user_id", userID, "order_id", order.ID, "type", kind, "reminder_date", at)
		return OutcomeSkipped, nil
	}

	rem := &domain.ScheduledReminder{
		UserID:       userID,
		OrderID:      order.ID,
		ReminderDate: at,
		ReminderType: kind,
	}
	immediate := at.Sub(now) <= s.cfg.FastPathWindow
	if immediate {
		sentAt := now.UTC()
		rem.IsSent = true
		rem.SentAt = &sentAt
	}

	if err := s.repo.Create(ctx, rem); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return OutcomeSkipped, fmt.Errorf("schedule %s: %w", kind, err)
	}

	if !immediate {
		s.logger.Info("reminder scheduled",
			"reminder_id", rem.ID, "user_id", userID, "order_id", order.ID, "type", kind, "reminder_date", at)
		return OutcomeScheduled, nil
	}

	if !s.notifier.Deliver(ctx, s.notice(*rem, &order), userID) {
		s.logger.Warn("immediate reminder not delivered",
			"reminder_id", rem.ID, "user_id", userID, "order_id", order.ID, "type", kind)
	}
	return OutcomeDispatched, nil
}

// CancelForOrder drops unsent reminders of the given types, or all of them.
func (s *Scheduler) CancelForOrder(ctx context.Context, orderID int64, kinds ...domain.ReminderType) error {
	n, err := s.repo.DeleteUnsent(ctx, orderID, kinds...)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("reminders cancelled", "order_id", orderID, "count", n)
	}
	return nil
}

// CancelForUser drops one user's unsent reminders about the order.
func (s *Scheduler) CancelForUser(ctx context.Context, userID, orderID int64, kinds ...domain.ReminderType) error {
	n, err := s.repo.DeleteUnsentForUser(ctx, userID, orderID, kinds...)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("reminders cancelled", "order_id", orderID, "user_id", userID, "count", n)
	}
	return nil
}

// CheckAndSend dispatches every unsent reminder due before the end of the
// current sweep window. Each reminder is marked sent right after its own
// successful dispatch.
func (s *Scheduler) CheckAndSend(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	due, err := s.repo.ListDue(ctx, now.Add(s.cfg.SweepWindow), sweepBatchLimit)
	if err != nil {
		return res, err
	}
	res.Due = len(due)

	orders := make(map[int64]*domain.Order)
	for _, rem := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		order, ok := orders[rem.OrderID]
		if !ok {
			order, err = s.orders.GetByID(ctx, rem.OrderID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("load reminder order", "reminder_id", rem.ID, "order_id", rem.OrderID, "error", err)
				res.Failed++
				continue
			}
			orders[rem.OrderID] = order
		}

		if stale(rem, order) {
			if _, err := s.repo.MarkSent(ctx, rem.ID, s.now()); err != nil {
				s.logger.Warn("retire stale reminder", "reminder_id", rem.ID, "error", err)
			}
			res.Suppressed++
			continue
		}

		if !s.notifier.Deliver(ctx, s.notice(rem, order), rem.UserID) {
			res.Failed++
			continue
		}

		marked, err := s.repo.MarkSent(ctx, rem.ID, s.now())
		if err != nil {
			s.logger.Error("mark reminder sent", "reminder_id", rem.ID, "error", err)
			res.Failed++
			continue
		}
		if marked {
			res.Sent++
		}
	}

	if res.Due > 0 {
		s.logger.Info("reminder sweep finished",
			"due", res.Due, "sent", res.Sent, "failed", res.Failed, "suppressed", res.Suppressed)
	}
	return res, nil
}

// stale reports reminders whose order no longer needs them.
func stale(rem domain.ScheduledReminder, order *domain.Order) bool {
	if order == nil {
		return true
	}
	switch rem.ReminderType {
	case domain.ReminderWork:
		return order.Status.Terminal()
	case domain.ReminderCompleteWork:
		return order.Status != domain.OrderInProgress
	}
	return false
}

func (s *Scheduler) notice(rem domain.ScheduledReminder, order *domain.Order) notification.Notice {
	local := order.ServiceDate.In(s.cfg.Location)
	return notification.Notice{
		Key:      string(rem.ReminderType),
		Category: domain.CategoryReminder,
		Params: i18n.Params{
			"order": order.Title,
			"date":  local.Format("02.01.2006"),
			"time":  local.Format("15:04"),
		},
		Data: map[string]any{
			"order_id":    order.ID,
			"reminder_id": rem.ID,
		},
	}
}
