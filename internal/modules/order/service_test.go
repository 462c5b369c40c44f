package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gigmarket/internal/database/dbtest"
	"gigmarket/internal/domain"
	"gigmarket/internal/i18n"
	"gigmarket/internal/modules/conflict"
	"gigmarket/internal/modules/reminder"
	"gigmarket/internal/notification"
	"gigmarket/internal/pkg/background"
	"gigmarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type scheduled struct {
	userID  int64
	orderID int64
	kind    domain.ReminderType
}

type fakeReminders struct {
	mu        sync.Mutex
	scheduled []scheduled
	cancelled map[int64][]domain.ReminderType
}

func (f *fakeReminders) Schedule(_ context.Context, userID int64, o domain.Order, kind domain.ReminderType) (reminder.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, scheduled{userID: userID, orderID: o.ID, kind: kind})
	return reminder.OutcomeScheduled, nil
}

func (f *fakeReminders) CancelForOrder(_ context.Context, orderID int64, kinds ...domain.ReminderType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled == nil {
		f.cancelled = map[int64][]domain.ReminderType{}
	}
	f.cancelled[orderID] = append(f.cancelled[orderID], kinds...)
	return nil
}

type sent struct {
	key        string
	recipients []int64
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeNotifier) Notify(_ context.Context, notice notification.Notice, recipients ...int64) <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{key: notice.Key, recipients: recipients})
	done := make(chan error, 1)
	done <- nil
	return done
}

func (f *fakeNotifier) byKey(key string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.key == key {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	orders     *repository.OrderRepository
	applicants *repository.ApplicantRepository
	reminders  *fakeReminders
	notifier   *fakeNotifier
	runner     *background.Runner
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	f := &fixture{
		db:         db,
		orders:     repository.NewOrderRepository(db),
		applicants: repository.NewApplicantRepository(db),
		reminders:  &fakeReminders{},
		notifier:   &fakeNotifier{},
		runner:     background.NewRunner(nil, time.Second),
	}
	resolver := conflict.NewResolver(f.applicants, time.UTC)
	f.service = NewService(f.orders, f.applicants, resolver, f.reminders, f.notifier, f.runner, nil,
		WithClock(func() time.Time { return testNow }))
	return f
}

var (
	customer = domain.Actor{ID: 1, Role: domain.RoleCustomer}
	worker   = domain.Actor{ID: 10, Role: domain.RoleWorker}
)

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Title:         "  Move a sofa ",
		Category:      "Moving",
		Location:      "Almaty",
		Budget:        15000,
		WorkersNeeded: 1,
		ServiceDate:   time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		Photos:        []string{" a.jpg", "", "a.jpg", "b.jpg"},
	}
}

func (f *fixture) createOrder(t *testing.T, workersNeeded int) *domain.Order {
	req := validRequest()
	req.WorkersNeeded = workersNeeded
	o, err := f.service.CreateOrder(context.Background(), customer, req)
	require.NoError(t, err)
	return o
}

func (f *fixture) apply(t *testing.T, orderID, workerID int64, status domain.ApplicantStatus) *domain.Applicant {
	a := &domain.Applicant{OrderID: orderID, WorkerID: workerID, Status: status, AppliedAt: testNow}
	if status == domain.ApplicantAccepted {
		at := testNow
		a.AcceptedAt = &at
	}
	require.NoError(t, f.applicants.Create(context.Background(), a))
	return a
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)

	o := f.createOrder(t, 2)
	assert.NotZero(t, o.ID)
	assert.Equal(t, domain.OrderNew, o.Status)
	assert.Equal(t, "Move a sofa", o.Title)
	assert.Equal(t, "moving", o.Category)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, o.Photos)
	assert.Zero(t, o.ApplicantsCount)

	stored, err := f.service.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ServiceDate.UTC(), stored.ServiceDate.UTC())
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateOrder(ctx, worker, validRequest())
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	tests := []struct {
		name   string
		mutate func(*CreateOrderRequest)
		field  string
	}{
		{"missing title", func(r *CreateOrderRequest) { r.Title = "  " }, "title"},
		{"too many workers", func(r *CreateOrderRequest) { r.WorkersNeeded = 51 }, "workers_needed"},
		{"past date", func(r *CreateOrderRequest) { r.ServiceDate = testNow.Add(-time.Hour) }, "service_date"},
		{"latitude alone", func(r *CreateOrderRequest) { lat := 43.2; r.Latitude = &lat }, "latitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := f.service.CreateOrder(ctx, customer, req)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestReconcile_FollowsActiveApplicants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)

	a := f.apply(t, o.ID, 10, domain.ApplicantPending)
	got, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderResponseReceived, got.Status)
	assert.Equal(t, 1, got.ApplicantsCount)

	ok, err := f.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantPending, domain.ApplicantRejected, nil)
	require.NoError(t, err)
	require.True(t, ok)

	got, err = f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderNew, got.Status)
	assert.Zero(t, got.ApplicantsCount)
}

func TestReconcile_FilledOnceAndSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)

	a := f.apply(t, o.ID, 10, domain.ApplicantAccepted)
	f.apply(t, o.ID, 11, domain.ApplicantPending)

	got, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, got.Status)
	assert.Equal(t, 2, got.ApplicantsCount)

	// a second pass after the marker is set must not re-notify
	f.runner.Wait()
	_, err = f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	f.runner.Wait()

	filled := f.notifier.byKey(i18n.KeyOrderFilled)
	require.Len(t, filled, 1)
	assert.Equal(t, []int64{customer.ID}, filled[0].recipients)
	require.Len(t, f.reminders.scheduled, 1)
	assert.Equal(t, scheduled{userID: customer.ID, orderID: o.ID, kind: domain.ReminderCompleteWork}, f.reminders.scheduled[0])

	stored, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.FilledNotifiedAt)

	// in_progress survives the accepted count dropping
	ok, err := f.applicants.CompareAndSetStatus(ctx, a.ID, domain.ApplicantAccepted, domain.ApplicantRejected, nil)
	require.NoError(t, err)
	require.True(t, ok)
	got, err = f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, got.Status)
	assert.Equal(t, 1, got.ApplicantsCount)
}

func TestReconcile_TerminalIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)
	f.apply(t, o.ID, 10, domain.ApplicantPending)

	_, err := f.service.CancelOrder(ctx, customer, o.ID)
	require.NoError(t, err)
	f.apply(t, o.ID, 11, domain.ApplicantPending)

	got, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
	assert.Zero(t, got.ApplicantsCount)
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		current          domain.OrderStatus
		needed, act, acc int
		want             domain.OrderStatus
	}{
		{domain.OrderNew, 1, 0, 0, domain.OrderNew},
		{domain.OrderNew, 1, 1, 0, domain.OrderResponseReceived},
		{domain.OrderResponseReceived, 2, 2, 1, domain.OrderResponseReceived},
		{domain.OrderResponseReceived, 2, 2, 2, domain.OrderInProgress},
		{domain.OrderResponseReceived, 1, 0, 0, domain.OrderNew},
		{domain.OrderInProgress, 1, 0, 0, domain.OrderInProgress},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveStatus(tt.current, tt.needed, tt.act, tt.acc),
			"%s needed=%d active=%d accepted=%d", tt.current, tt.needed, tt.act, tt.acc)
	}
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)
	f.apply(t, o.ID, 10, domain.ApplicantPending)
	f.apply(t, o.ID, 11, domain.ApplicantRejected)

	title := "Move a piano"
	photos := []string{"c.jpg", "c.jpg"}
	got, err := f.service.UpdateOrder(ctx, customer, o.ID, UpdateOrderRequest{Title: &title, Photos: photos})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, []string{"c.jpg"}, got.Photos)

	updated := f.notifier.byKey(i18n.KeyOrderUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, []int64{10}, updated[0].recipients)

	_, err = f.service.UpdateOrder(ctx, domain.Actor{ID: 2, Role: domain.RoleCustomer}, o.ID, UpdateOrderRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.service.UpdateOrder(ctx, customer, o.ID, UpdateOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateOrder_WorkersNeededRederivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 2)
	f.apply(t, o.ID, 10, domain.ApplicantAccepted)
	_, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)

	one := 1
	got, err := f.service.UpdateOrder(ctx, customer, o.ID, UpdateOrderRequest{WorkersNeeded: &one})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, got.Status)
	f.runner.Wait()

	title := "Too late"
	_, err = f.service.UpdateOrder(ctx, customer, o.ID, UpdateOrderRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelOrder_RemovesActiveApplicants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 2)
	f.apply(t, o.ID, 10, domain.ApplicantPending)
	f.apply(t, o.ID, 11, domain.ApplicantAccepted)
	f.apply(t, o.ID, 12, domain.ApplicantRejected)
	_, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)

	got, err := f.service.CancelOrder(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
	assert.Zero(t, got.ApplicantsCount)
	f.runner.Wait()

	left, err := f.applicants.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, domain.ApplicantRejected, left[0].Status)

	cancelled := f.notifier.byKey(i18n.KeyOrderCancelled)
	require.Len(t, cancelled, 1)
	assert.ElementsMatch(t, []int64{10, 11}, cancelled[0].recipients)
	assert.Contains(t, f.reminders.cancelled, o.ID)

	_, err = f.service.CancelOrder(ctx, customer, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// failApplicantWrites makes every delete or update of applicant rows fail
// as if the database connection dropped mid-operation.
func failApplicantWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == "applicants" {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_applicant_delete", fail))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_applicant_update", fail))
}

func TestCancelOrder_ApplicantFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)
	a := f.apply(t, o.ID, 10, domain.ApplicantPending)
	_, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)

	failApplicantWrites(t, f.db)

	_, err = f.service.CancelOrder(ctx, customer, o.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyUnavailable)
	f.runner.Wait()

	stored, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderResponseReceived, stored.Status)
	assert.Equal(t, 1, stored.ApplicantsCount)

	kept, err := f.applicants.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicantPending, kept.Status)
	assert.Empty(t, f.notifier.byKey(i18n.KeyOrderCancelled))
	assert.NotContains(t, f.reminders.cancelled, o.ID)
}

func TestCompleteOrder_ApplicantFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)
	a := f.apply(t, o.ID, 10, domain.ApplicantAccepted)
	_, err := f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	f.runner.Wait()

	failApplicantWrites(t, f.db)

	_, err = f.service.CompleteOrder(ctx, customer, o.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyUnavailable)

	stored, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, stored.Status)

	kept, err := f.applicants.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicantAccepted, kept.Status)
	assert.Empty(t, f.notifier.byKey(i18n.KeyOrderCompleted))
}

func TestCompleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, 1)

	_, err := f.service.CompleteOrder(ctx, customer, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	a := f.apply(t, o.ID, 10, domain.ApplicantAccepted)
	_, err = f.service.Reconcile(ctx, o.ID)
	require.NoError(t, err)
	f.runner.Wait()

	got, err := f.service.CompleteOrder(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, got.Status)
	f.runner.Wait()

	stored, err := f.applicants.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicantCompleted, stored.Status)

	completed := f.notifier.byKey(i18n.KeyOrderCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, []int64{10}, completed[0].recipients)
	assert.Equal(t, []domain.ReminderType{domain.ReminderCompleteWork}, f.reminders.cancelled[o.ID])
}

func TestListCustomerOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createOrder(t, 1)
	f.createOrder(t, 1)
	_, err := f.service.CancelOrder(ctx, customer, first.ID)
	require.NoError(t, err)

	all, err := f.service.ListCustomerOrders(ctx, customer, ListMyOrdersQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := f.service.ListCustomerOrders(ctx, customer, ListMyOrdersQuery{Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, err = f.service.ListCustomerOrders(ctx, customer, ListMyOrdersQuery{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAvailableOrders_ExcludesBusyDaysAndApplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mk := func(day int) *domain.Order {
		req := validRequest()
		req.ServiceDate = time.Date(2024, 6, day, 9, 0, 0, 0, time.UTC)
		o, err := f.service.CreateOrder(ctx, customer, req)
		require.NoError(t, err)
		return o
	}
	booked := mk(10)
	sameDay := mk(10)
	applied := mk(11)
	open := mk(12)

	f.apply(t, booked.ID, worker.ID, domain.ApplicantAccepted)
	f.apply(t, applied.ID, worker.ID, domain.ApplicantPending)

	got, err := f.service.AvailableOrders(ctx, worker, AvailableOrdersQuery{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(got))
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int64{open.ID}, ids)
	assert.NotContains(t, ids, sameDay.ID)

	_, err = f.service.AvailableOrders(ctx, customer, AvailableOrdersQuery{})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}
