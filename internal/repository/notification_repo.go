package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigmarket/internal/domain"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return wrap("create notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]domain.Notification, error) {
	limit, _ = normalizeLimit(limit, 0)
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []domain.Notification
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, wrap("list notifications", err)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, wrap("count unread notifications", err)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": at.UTC()})
	if res.Error != nil {
		return wrap("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at.UTC()}).Error
	return wrap("mark all notifications read", err)
}

type DeviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// Upsert registers the token for the user, moving it over if another user
// registered it before.
func (r *DeviceTokenRepository) Upsert(ctx context.Context, t *domain.DeviceToken) error {
	if t.LastSeenAt.IsZero() {
		t.LastSeenAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "last_seen_at"}),
		}).
		Create(t).Error
	return wrap("upsert device token", err)
}

func (r *DeviceTokenRepository) ListTokens(ctx context.Context, userID int64) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&domain.DeviceToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &out).Error
	if err != nil {
		return nil, wrap("list device tokens", err)
	}
	return out, nil
}

func (r *DeviceTokenRepository) Delete(ctx context.Context, userID int64, token string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&domain.DeviceToken{})
	if res.Error != nil {
		return wrap("delete device token", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteTokens drops tokens the push provider reported as unregistered.
func (r *DeviceTokenRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return wrap("delete device tokens", r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&domain.DeviceToken{}).Error)
}
