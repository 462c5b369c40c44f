package applicant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/modules/conflict"
	"gigmarket/internal/notification"
	"gigmarket/internal/pkg/background"
	"gigmarket/internal/pkg/validator"
	"gigmarket/internal/repository"
)

// Service is the applicant lifecycle controller. Every transition is a
// conditional status write; the owning order is reconciled afterwards.
type Service struct {
	applicants ApplicantRepository
	orders     OrderReader
	reconciler Reconciler
	calendar   Calendar
	users      UserDirectory
	reminders  ReminderScheduler
	notifier   Notifier
	runner     *background.Runner
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	applicants ApplicantRepository,
	orders OrderReader,
	reconciler Reconciler,
	calendar Calendar,
	users UserDirectory,
	reminders ReminderScheduler,
	notifier Notifier,
	runner *background.Runner,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		applicants: applicants,
		orders:     orders,
		reconciler: reconciler,
		calendar:   calendar,
		users:      users,
		reminders:  reminders,
		notifier:   notifier,
		runner:     runner,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create files a pending application. Date conflicts are not enforced here;
// they are resolved when the customer accepts.
func (s *Service) Create(ctx context.Context, actor domain.Actor, orderID int64, req CreateApplicantRequest) (*domain.Applicant, error) {
	if actor.Role != domain.RoleWorker {
		return nil, ErrWorkersOnly
	}
	req.normalize()
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID == actor.ID {
		return nil, ErrOwnOrder
	}
	if !o.Status.Editable() || !o.ServiceDate.After(s.now()) {
		return nil, ErrOrderClosed
	}

	existing, err := s.applicants.FindActive(ctx, orderID, actor.ID)
	switch {
	case err == nil && existing != nil:
		return nil, ErrAlreadyApplied
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	a := &domain.Applicant{
		OrderID:       orderID,
		WorkerID:      actor.ID,
		ProposedPrice: req.ProposedPrice,
		Message:       req.Message,
		Status:        domain.ApplicantPending,
		AppliedAt:     s.now(),
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	switch {
	case err == nil:
		a.WorkerName = user.Name
		a.WorkerPhone = user.Phone
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if busy, err := s.calendar.HasAcceptedOnDay(ctx, actor.ID, o.ServiceDate, 0); err != nil {
		s.logger.Warn("date conflict check failed", "order_id", orderID, "worker_id", actor.ID, "error", err)
	} else if busy {
		s.logger.Warn("worker applied on a day they are already booked",
			"order_id", orderID, "worker_id", actor.ID, "service_date", o.ServiceDate)
	}

	if err := s.applicants.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.ensureStillOpen(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("applicant created", "applicant_id", a.ID, "order_id", orderID, "worker_id", actor.ID)

	if updated := s.reconcile(ctx, orderID); updated != nil {
		o = updated
	}
	s.notifier.Notify(ctx, s.notice(i18n.KeyApplicantCreated, o, a), o.CustomerID)
	return a, nil
}

// ensureStillOpen re-reads the order after an insert. A cancel or complete
// that committed in between has already swept the order's applicants, so the
// new row is withdrawn here instead.
func (s *Service) ensureStillOpen(ctx context.Context, a *domain.Applicant) error {
	o, err := s.orders.GetByID(ctx, a.OrderID)
	if err != nil {
		return err
	}
	if !o.Status.Terminal() {
		return nil
	}
	if _, err := s.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantPending, domain.ApplicantCancelled, nil); err != nil {
		s.logger.Error("withdraw applicant of closed order", "applicant_id", a.ID, "order_id", a.OrderID, "error", err)
		return err
	}
	s.logger.Info("applicant withdrawn, order closed meanwhile", "applicant_id", a.ID, "order_id", a.OrderID, "status", o.Status)
	return ErrOrderClosed
}

// Accept commits the worker to the order. The first acceptance to commit for
// a worker and day wins; a later one is reverted with a date conflict. Other
// pending applications of the worker on that day are rejected.
func (s *Service) Accept(ctx context.Context, actor domain.Actor, id int64) (*domain.Applicant, error) {
	a, o, err := s.customerView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.ApplicantPending {
		return nil, ErrNotPending
	}
	if !o.Status.Editable() {
		return nil, ErrOrderClosed
	}

	busy, err := s.calendar.HasAcceptedOnDay(ctx, a.WorkerID, o.ServiceDate, a.ID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, ErrDateTaken
	}

	acceptedAt := s.now().UTC().Truncate(time.Microsecond)
	day := s.calendar.DayKey(o.ServiceDate)
	ok, err := s.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantPending, domain.ApplicantAccepted, map[string]any{
		"accepted_at":  acceptedAt,
		"accepted_day": day,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDateTaken
		}
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyProcessed
	}

	accepted, err := s.calendar.AcceptedOnDay(ctx, a.WorkerID, o.ServiceDate, a.ID)
	if err != nil {
		s.revert(ctx, a.ID, domain.ApplicantPending)
		return nil, err
	}
	if earlier := conflict.AcceptedBefore(accepted, a.ID, acceptedAt); len(earlier) > 0 {
		s.logger.Info("acceptance lost to an earlier one",
			"applicant_id", a.ID, "worker_id", a.WorkerID, "winner_id", earlier[0].ApplicantID)
		s.revert(ctx, a.ID, domain.ApplicantRejected)
		s.reconcile(ctx, o.ID)
		return nil, ErrDateTaken
	}

	affected := []int64{o.ID}
	affected = append(affected, s.rejectSameDay(ctx, a, o)...)
	for _, orderID := range uniqueIDs(affected) {
		if updated := s.reconcile(ctx, orderID); updated != nil && orderID == o.ID {
			o = updated
		}
	}

	a.Status = domain.ApplicantAccepted
	a.AcceptedAt = &acceptedAt
	a.AcceptedDay = &day
	s.logger.Info("applicant accepted", "applicant_id", a.ID, "order_id", o.ID, "worker_id", a.WorkerID)

	snapshot := *o
	workerID := a.WorkerID
	s.runner.Go(ctx, "schedule work reminder", func(ctx context.Context) error {
		_, err := s.reminders.Schedule(ctx, workerID, snapshot, domain.ReminderWork)
		return err
	})
	s.notifier.Notify(ctx, s.notice(i18n.KeyWorkerSelected, o, a), a.WorkerID)
	return a, nil
}

// rejectSameDay rejects the worker's other pending applications on the
// order's day and returns the orders they belonged to.
func (s *Service) rejectSameDay(ctx context.Context, a *domain.Applicant, o *domain.Order) []int64 {
	pending, err := s.calendar.PendingOnDay(ctx, a.WorkerID, o.ServiceDate, a.ID)
	if err != nil {
		s.logger.Error("list same-day applications", "applicant_id", a.ID, "worker_id", a.WorkerID, "error", err)
		return nil
	}
	var orders []int64
	for _, c := range pending {
		ok, err := s.applicants.CompareAndSetStatus(ctx, c.ApplicantID, domain.ApplicantPending, domain.ApplicantRejected, nil)
		if err != nil {
			s.logger.Error("reject same-day application", "applicant_id", c.ApplicantID, "error", err)
			continue
		}
		if ok {
			orders = append(orders, c.OrderID)
		}
	}
	if len(orders) > 0 {
		s.logger.Info("same-day applications rejected", "worker_id", a.WorkerID, "count", len(orders))
	}
	return orders
}

func (s *Service) revert(ctx context.Context, id int64, to domain.ApplicantStatus) {
	ok, err := s.applicants.CompareAndSetStatus(ctx, id, domain.ApplicantAccepted, to, map[string]any{
		"accepted_at":  nil,
		"accepted_day": nil,
	})
	if err != nil || !ok {
		s.logger.Error("revert acceptance", "applicant_id", id, "to", to, "reverted", ok, "error", err)
	}
}

// Reject turns down a pending applicant, or releases an accepted one while
// the order has not started. A released worker's day is freed and their work
// reminder for the order is dropped.
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id int64) (*domain.Applicant, error) {
	a, o, err := s.customerView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status == domain.ApplicantAccepted {
		if err := s.release(ctx, a, o); err != nil {
			return nil, err
		}
	} else if err := s.transition(ctx, a, domain.ApplicantRejected); err != nil {
		return nil, err
	}
	if updated := s.reconcile(ctx, o.ID); updated != nil {
		o = updated
	}
	s.notifier.Notify(ctx, s.notice(i18n.KeyApplicationRejected, o, a), a.WorkerID)
	return a, nil
}

func (s *Service) release(ctx context.Context, a *domain.Applicant, o *domain.Order) error {
	if o.Status == domain.OrderInProgress {
		return ErrOrderStarted
	}
	if !o.Status.Editable() {
		return ErrOrderClosed
	}
	ok, err := s.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantAccepted, domain.ApplicantRejected, map[string]any{
		"accepted_at":  nil,
		"accepted_day": nil,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyProcessed
	}
	a.Status = domain.ApplicantRejected
	a.AcceptedAt = nil
	a.AcceptedDay = nil
	s.logger.Info("accepted applicant released", "applicant_id", a.ID, "order_id", o.ID, "worker_id", a.WorkerID)

	workerID, orderID := a.WorkerID, o.ID
	s.runner.Go(ctx, "cancel work reminder", func(ctx context.Context) error {
		return s.reminders.CancelForUser(ctx, workerID, orderID, domain.ReminderWork)
	})
	return nil
}

// Cancel withdraws the worker's own pending application. Accepted work
// cannot be withdrawn this way.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Applicant, error) {
	a, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.WorkerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotApplicant
	}
	if err := s.transition(ctx, a, domain.ApplicantCancelled); err != nil {
		return nil, err
	}

	o := s.reconcile(ctx, a.OrderID)
	if o == nil {
		if o, err = s.orders.GetByID(ctx, a.OrderID); err != nil {
			s.logger.Warn("load order for notification", "order_id", a.OrderID, "error", err)
			return a, nil
		}
	}
	s.notifier.Notify(ctx, s.notice(i18n.KeyApplicationCancelled, o, a), o.CustomerID)
	return a, nil
}

func (s *Service) transition(ctx context.Context, a *domain.Applicant, to domain.ApplicantStatus) error {
	if a.Status != domain.ApplicantPending {
		return ErrNotPending
	}
	ok, err := s.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantPending, to, nil)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyProcessed
	}
	a.Status = to
	s.logger.Info("applicant status changed", "applicant_id", a.ID, "order_id", a.OrderID, "to", to)
	return nil
}

// ListForOrder returns every applicant of the order.
func (s *Service) ListForOrder(ctx context.Context, actor domain.Actor, orderID int64) ([]domain.Applicant, error) {
	if _, err := s.ownedOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.applicants.ListByOrder(ctx, orderID)
}

// ListFilteredForOrder is the customer's view: rejected and cancelled
// applicants are dropped, and so are pending ones whose worker has since been
// booked elsewhere that day.
func (s *Service) ListFilteredForOrder(ctx context.Context, actor domain.Actor, orderID int64) ([]domain.Applicant, error) {
	o, err := s.ownedOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	all, err := s.applicants.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	booked := make(map[int64]bool)
	out := make([]domain.Applicant, 0, len(all))
	for _, a := range all {
		if a.Status.HiddenFromCustomer() {
			continue
		}
		if a.Status == domain.ApplicantPending {
			taken, seen := booked[a.WorkerID]
			if !seen {
				taken, err = s.calendar.HasAcceptedOnDay(ctx, a.WorkerID, o.ServiceDate, a.ID)
				if err != nil {
					return nil, err
				}
				booked[a.WorkerID] = taken
			}
			if taken {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, q ListMineQuery) ([]domain.Applicant, error) {
	if actor.Role != domain.RoleWorker && !actor.IsAdmin() {
		return nil, ErrWorkersOnly
	}
	var statuses []domain.ApplicantStatus
	if q.Status != "" {
		st := domain.ApplicantStatus(q.Status)
		if !st.Active() && !st.Terminal() {
			return nil, domain.NewValidationError(map[string]string{"status": "unknown status"})
		}
		statuses = append(statuses, st)
	}
	return s.applicants.ListByWorker(ctx, actor.ID, statuses...)
}

func (s *Service) customerView(ctx context.Context, actor domain.Actor, id int64) (*domain.Applicant, *domain.Order, error) {
	a, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.ownedOrder(ctx, actor, a.OrderID)
	if err != nil {
		return nil, nil, err
	}
	return a, o, nil
}

func (s *Service) ownedOrder(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotOrderOwner
	}
	return o, nil
}

// reconcile runs after the applicant write has committed, so a failure is
// logged and the write stands.
func (s *Service) reconcile(ctx context.Context, orderID int64) *domain.Order {
	o, err := s.reconciler.Reconcile(ctx, orderID)
	if err != nil {
		s.logger.Error("reconcile order", "order_id", orderID, "error", err)
		return nil
	}
	return o
}

func (s *Service) notice(key string, o *domain.Order, a *domain.Applicant) notification.Notice {
	local := o.ServiceDate.In(s.calendar.Location())
	return notification.Notice{
		Key:      key,
		Category: domain.CategoryApplicant,
		Params: i18n.Params{
			"order":  o.Title,
			"worker": a.WorkerName,
			"date":   local.Format("02.01.2006"),
			"time":   local.Format("15:04"),
		},
		Data: map[string]any{
			"order_id":     o.ID,
			"applicant_id": a.ID,
			"status":       string(a.Status),
		},
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
