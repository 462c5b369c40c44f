package domain

import "time"

type NotificationCategory string

const (
	CategoryOrder     NotificationCategory = "order"
	CategoryApplicant NotificationCategory = "applicant"
	CategoryReminder  NotificationCategory = "reminder"
)

type Notification struct {
	ID        int64                `json:"id" gorm:"primaryKey"`
	UserID    int64                `json:"user_id" gorm:"not null;index:idx_notifications_user_read"`
	Category  NotificationCategory `json:"category" gorm:"size:32;not null"`
	Title     string               `json:"title" gorm:"size:255;not null"`
	Body      string               `json:"body,omitempty" gorm:"type:text"`
	Data      map[string]any       `json:"data,omitempty" gorm:"serializer:json;type:text"`
	IsRead    bool                 `json:"is_read" gorm:"not null;default:false;index:idx_notifications_user_read"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// DeviceToken is an FCM registration token for push delivery.
type DeviceToken struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"not null;index"`
	Token      string    `json:"token" gorm:"size:512;not null;uniqueIndex"`
	Platform   string    `json:"platform" gorm:"size:16"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DeviceToken) TableName() string { return "device_tokens" }
