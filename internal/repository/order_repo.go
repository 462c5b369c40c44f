package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gigmarket/internal/domain"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderFilter narrows List. Zero values are ignored.
type OrderFilter struct {
	CustomerID        int64
	Statuses          []domain.OrderStatus
	Category          string
	ServiceAfter      time.Time
	ExcludeCustomerID int64
	ExcludeIDs        []int64
	Limit             int
	Offset            int
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	o.ServiceDate = o.ServiceDate.UTC()
	if o.Photos == nil {
		o.Photos = []string{}
	}
	return wrap("create order", r.db.WithContext(ctx).Create(o).Error)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, wrap("get order", err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	limit, offset := normalizeLimit(f.Limit, f.Offset)

	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.CustomerID > 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.ExcludeCustomerID > 0 {
		q = q.Where("customer_id <> ?", f.ExcludeCustomerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if !f.ServiceAfter.IsZero() {
		q = q.Where("service_date > ?", f.ServiceAfter.UTC())
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", f.ExcludeIDs)
	}

	var out []domain.Order
	if err := q.Order("service_date ASC, id ASC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, wrap("list orders", err)
	}
	return out, nil
}

// UpdateWhereStatus applies fields only while the order is in one of the
// given statuses. It reports whether the row was updated.
func (r *OrderRepository) UpdateWhereStatus(ctx context.Context, id int64, from []domain.OrderStatus, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, wrap("update order", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Cancel moves the order from one of the given statuses to cancelled and
// deletes its active applicants in one transaction. ok is false when the
// order had already left those statuses; nothing is written then.
func (r *OrderRepository) Cancel(ctx context.Context, id int64, from []domain.OrderStatus) (removed []domain.Applicant, ok bool, err error) {
	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(map[string]any{
				"status":           domain.OrderCancelled,
				"applicants_count": 0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}
		list, err := deleteActive(tx, id)
		if err != nil {
			return err
		}
		removed, ok = list, true
		return nil
	})
	if txErr != nil {
		return nil, false, wrap("cancel order", txErr)
	}
	return removed, ok, nil
}

// Complete moves an in-progress order to completed and completes its
// accepted applicants in one transaction.
func (r *OrderRepository) Complete(ctx context.Context, id int64) (completed []domain.Applicant, ok bool, err error) {
	txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, domain.OrderInProgress).
			Update("status", domain.OrderCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}
		list, err := completeAccepted(tx, id)
		if err != nil {
			return err
		}
		completed, ok = list, true
		return nil
	})
	if txErr != nil {
		return nil, false, wrap("complete order", txErr)
	}
	return completed, ok, nil
}

// SetDerivedState writes a recomputed status and applicant counter, guarded by
// the status the caller derived them from.
func (r *OrderRepository) SetDerivedState(ctx context.Context, id int64, expected, status domain.OrderStatus, count int) (bool, error) {
	return r.UpdateWhereStatus(ctx, id, []domain.OrderStatus{expected}, map[string]any{
		"status":           status,
		"applicants_count": count,
	})
}

// MarkFilledNotified claims the one-time "order filled" notification.
func (r *OrderRepository) MarkFilledNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND filled_notified_at IS NULL", id).
		Update("filled_notified_at", at.UTC())
	if res.Error != nil {
		return false, wrap("mark order notified", res.Error)
	}
	return res.RowsAffected == 1, nil
}
