package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/notification"
	"gigmarket/internal/pkg/background"
	"gigmarket/internal/pkg/utils"
	"gigmarket/internal/pkg/validator"
	"gigmarket/internal/repository"
)

const availableScanBatch = 50

// Service is the order lifecycle controller. It owns the order state machine
// and re-derives status and applicant counters from applicant rows.
type Service struct {
	orders     OrderRepository
	applicants ApplicantRepository
	calendar   Calendar
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
	orders OrderRepository,
	applicants ApplicantRepository,
	calendar Calendar,
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
		orders:     orders,
		applicants: applicants,
		calendar:   calendar,
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

func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, req CreateOrderRequest) (*domain.Order, error) {
	if actor.Role != domain.RoleCustomer && !actor.IsAdmin() {
		return nil, ErrCustomersOnly
	}

	req.normalize()
	req.Photos = utils.NormalizePhotos(req.Photos)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if !req.ServiceDate.After(s.now()) {
		fields["service_date"] = "must be in the future"
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		fields["latitude"] = "latitude and longitude must be set together"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	o := &domain.Order{
		CustomerID:    actor.ID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Budget:        req.Budget,
		WorkersNeeded: req.WorkersNeeded,
		ServiceDate:   req.ServiceDate,
		Photos:        req.Photos,
		Status:        domain.OrderNew,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created", "order_id", o.ID, "customer_id", o.CustomerID, "service_date", o.ServiceDate)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UpdateOrder edits everything but the service date while the order is still
// open, then tells every active applicant.
func (s *Service) UpdateOrder(ctx context.Context, actor domain.Actor, id int64, req UpdateOrderRequest) (*domain.Order, error) {
	o, err := s.ownedOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.Editable() {
		return nil, ErrNotEditable
	}

	req.normalize()
	updates, err := s.updateFields(o, req)
	if err != nil {
		return nil, err
	}

	ok, err := s.orders.UpdateWhereStatus(ctx, id, domain.EditableOrderStatuses, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, id, domain.OrderStatus.Editable, ErrNotEditable)
	}

	var updated *domain.Order
	if req.WorkersNeeded != nil {
		// fewer slots may already be filled
		updated, err = s.Reconcile(ctx, id)
	} else {
		updated, err = s.orders.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	s.notifyApplicants(ctx, updated, i18n.KeyOrderUpdated, domain.ApplicantPending, domain.ApplicantAccepted)
	return updated, nil
}

func (s *Service) updateFields(o *domain.Order, req UpdateOrderRequest) (map[string]any, error) {
	if req.Photos != nil {
		req.Photos = utils.NormalizePhotos(req.Photos)
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	invalid := map[string]string{}
	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			invalid["title"] = "is required"
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		if *req.Category == "" {
			invalid["category"] = "is required"
		}
		updates["category"] = *req.Category
	}
	if req.Location != nil {
		if *req.Location == "" {
			invalid["location"] = "is required"
		}
		updates["location"] = *req.Location
	}
	if req.Budget != nil {
		updates["budget"] = *req.Budget
	}
	if req.WorkersNeeded != nil {
		updates["workers_needed"] = *req.WorkersNeeded
	}
	if req.Photos != nil {
		// map updates bypass the field serializer
		raw, err := json.Marshal(req.Photos)
		if err != nil {
			return nil, err
		}
		updates["photos"] = string(raw)
	}
	if req.Latitude != nil || req.Longitude != nil {
		lat, lng := o.Latitude, o.Longitude
		if req.Latitude != nil {
			lat = req.Latitude
		}
		if req.Longitude != nil {
			lng = req.Longitude
		}
		if lat == nil || lng == nil {
			invalid["latitude"] = "latitude and longitude must be set together"
		}
		updates["latitude"] = lat
		updates["longitude"] = lng
	}

	if len(invalid) > 0 {
		return nil, domain.NewValidationError(invalid)
	}
	if len(updates) == 0 {
		return nil, domain.NewValidationError(map[string]string{"_": "nothing to update"})
	}
	return updates, nil
}

// CancelOrder is only possible before work starts. Active applicants are
// deleted in the same transaction to free the workers' calendars.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	o, err := s.ownedOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.Editable() {
		return nil, ErrNotEditable
	}

	removed, ok, err := s.orders.Cancel(ctx, id, domain.EditableOrderStatuses)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, id, domain.OrderStatus.Editable, ErrNotEditable)
	}

	o.Status = domain.OrderCancelled
	o.ApplicantsCount = 0
	s.logger.Info("order cancelled", "order_id", id, "removed_applicants", len(removed))

	snapshot := *o
	s.runner.Go(ctx, "cancel order reminders", func(ctx context.Context) error {
		return s.reminders.CancelForOrder(ctx, snapshot.ID)
	})
	s.notifier.Notify(ctx, orderNotice(&snapshot, i18n.KeyOrderCancelled), workerIDs(removed)...)
	return o, nil
}

// CompleteOrder closes an in-progress order and completes its accepted
// applicants.
func (s *Service) CompleteOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	o, err := s.ownedOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderInProgress {
		return nil, ErrNotInProgress
	}

	completed, ok, err := s.orders.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, id, func(st domain.OrderStatus) bool { return st == domain.OrderInProgress }, ErrNotInProgress)
	}

	o.Status = domain.OrderCompleted
	s.logger.Info("order completed", "order_id", id, "workers", len(completed))

	snapshot := *o
	s.runner.Go(ctx, "drop completion reminder", func(ctx context.Context) error {
		return s.reminders.CancelForOrder(ctx, snapshot.ID, domain.ReminderCompleteWork)
	})
	s.notifier.Notify(ctx, orderNotice(&snapshot, i18n.KeyOrderCompleted), workerIDs(completed)...)
	return o, nil
}

func (s *Service) ListCustomerOrders(ctx context.Context, actor domain.Actor, q ListMyOrdersQuery) ([]domain.Order, error) {
	f := repository.OrderFilter{CustomerID: actor.ID, Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		st := domain.OrderStatus(q.Status)
		if !st.Valid() {
			return nil, domain.NewValidationError(map[string]string{"status": "unknown status"})
		}
		f.Statuses = []domain.OrderStatus{st}
	}
	return s.orders.List(ctx, f)
}

// AvailableOrders lists open future orders the worker can still take: not
// their own, not already applied to and not on a day they are booked.
func (s *Service) AvailableOrders(ctx context.Context, actor domain.Actor, q AvailableOrdersQuery) ([]domain.Order, error) {
	if actor.Role != domain.RoleWorker && !actor.IsAdmin() {
		return nil, ErrWorkersOnly
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	skip := max(q.Offset, 0)

	now := s.now()
	busy, err := s.calendar.BusyDays(ctx, actor.ID, now)
	if err != nil {
		return nil, err
	}
	mine, err := s.applicants.ListByWorker(ctx, actor.ID, domain.ActiveApplicantStatuses...)
	if err != nil {
		return nil, err
	}
	applied := make([]int64, 0, len(mine))
	for _, a := range mine {
		applied = append(applied, a.OrderID)
	}

	filter := repository.OrderFilter{
		Statuses:          domain.EditableOrderStatuses,
		Category:          q.Category,
		ServiceAfter:      now,
		ExcludeCustomerID: actor.ID,
		ExcludeIDs:        applied,
		Limit:             availableScanBatch,
	}

	out := make([]domain.Order, 0, limit)
	for {
		page, err := s.orders.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, o := range page {
			if busy.Contains(o.ServiceDate) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, o)
			if len(out) == limit {
				return out, nil
			}
		}
		if len(page) < availableScanBatch {
			return out, nil
		}
		filter.Offset += availableScanBatch
	}
}

func (s *Service) ownedOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	return o, nil
}

// lostRace explains a conditional write that matched nothing: another
// request either moved the order out of the allowed states or got there first.
func (s *Service) lostRace(ctx context.Context, id int64, allowed func(domain.OrderStatus) bool, stateErr error) error {
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return domain.ErrAlreadyProcessed
	}
	if !allowed(current.Status) {
		return stateErr
	}
	return domain.ErrAlreadyProcessed
}

func (s *Service) notifyApplicants(ctx context.Context, o *domain.Order, key string, statuses ...domain.ApplicantStatus) {
	applicants, err := s.applicants.ListByOrder(ctx, o.ID, statuses...)
	if err != nil {
		s.logger.Warn("list applicants for notification", "order_id", o.ID, "key", key, "error", err)
		return
	}
	s.notifier.Notify(ctx, orderNotice(o, key), workerIDs(applicants)...)
}

func orderNotice(o *domain.Order, key string) notification.Notice {
	return notification.Notice{
		Key:      key,
		Category: domain.CategoryOrder,
		Params:   i18n.Params{"order": o.Title},
		Data:     map[string]any{"order_id": o.ID, "status": string(o.Status)},
	}
}

func workerIDs(applicants []domain.Applicant) []int64 {
	ids := make([]int64, 0, len(applicants))
	for _, a := range applicants {
		ids = append(ids, a.WorkerID)
	}
	return ids
}
