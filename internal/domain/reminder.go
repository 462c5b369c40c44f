package domain

import "time"

type ReminderType string

const (
	ReminderWork         ReminderType = "work_reminder"
	ReminderCompleteWork ReminderType = "complete_work_reminder"
)

// ScheduledReminder is a one-shot deferred notification. IsSent is flipped
// once and never reset.
type ScheduledReminder struct {
	ID           int64        `json:"id" gorm:"primaryKey"`
	UserID       int64        `json:"user_id" gorm:"not null;uniqueIndex:idx_reminders_user_order_type"`
	OrderID      int64        `json:"order_id" gorm:"not null;index;uniqueIndex:idx_reminders_user_order_type"`
	ReminderDate time.Time    `json:"reminder_date" gorm:"not null;index"`
	ReminderType ReminderType `json:"reminder_type" gorm:"size:32;not null;uniqueIndex:idx_reminders_user_order_type"`
	IsSent       bool         `json:"is_sent" gorm:"not null;default:false;index"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (ScheduledReminder) TableName() string { return "scheduled_reminders" }
