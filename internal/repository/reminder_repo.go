package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gigmarket/internal/domain"
)

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a reminder. A reminder already scheduled for the same
// (user, order, type) yields ErrDuplicate.
func (r *ReminderRepository) Create(ctx context.Context, rem *domain.ScheduledReminder) error {
	rem.ReminderDate = rem.ReminderDate.UTC()
	return wrap("create reminder", r.db.WithContext(ctx).Create(rem).Error)
}

// ListDue returns unsent reminders dated at or before until, oldest first.
func (r *ReminderRepository) ListDue(ctx context.Context, until time.Time, limit int) ([]domain.ScheduledReminder, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []domain.ScheduledReminder
	err := r.db.WithContext(ctx).
		Where("is_sent = ? AND reminder_date <= ?", false, until.UTC()).
		Order("reminder_date ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, wrap("list due reminders", err)
	}
	return out, nil
}

func (r *ReminderRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.ScheduledReminder, error) {
	var out []domain.ScheduledReminder
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, wrap("list order reminders", err)
	}
	return out, nil
}

// MarkSent flips is_sent once; a second call reports false.
func (r *ReminderRepository) MarkSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	sentAt := at.UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.ScheduledReminder{}).
		Where("id = ? AND is_sent = ?", id, false).
		Updates(map[string]any{"is_sent": true, "sent_at": &sentAt})
	if res.Error != nil {
		return false, wrap("mark reminder sent", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteUnsent removes pending reminders of the order, optionally limited to
// the given types.
func (r *ReminderRepository) DeleteUnsent(ctx context.Context, orderID int64, types ...domain.ReminderType) (int64, error) {
	return deleteUnsent(r.db.WithContext(ctx).Where("order_id = ? AND is_sent = ?", orderID, false), types)
}

// DeleteUnsentForUser removes one user's pending reminders about the order.
func (r *ReminderRepository) DeleteUnsentForUser(ctx context.Context, userID, orderID int64, types ...domain.ReminderType) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND order_id = ? AND is_sent = ?", userID, orderID, false)
	return deleteUnsent(q, types)
}

func deleteUnsent(q *gorm.DB, types []domain.ReminderType) (int64, error) {
	if len(types) > 0 {
		q = q.Where("reminder_type IN ?", types)
	}
	res := q.Delete(&domain.ScheduledReminder{})
	if res.Error != nil {
		return 0, wrap("delete reminders", res.Error)
	}
	return res.RowsAffected, nil
}
