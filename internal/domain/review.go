package domain

import "time"

// Review is append-only; one per (order, worker).
type Review struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	OrderID    int64     `json:"order_id" gorm:"not null;uniqueIndex:idx_reviews_order_worker"`
	WorkerID   int64     `json:"worker_id" gorm:"not null;index;uniqueIndex:idx_reviews_order_worker"`
	CustomerID int64     `json:"customer_id" gorm:"not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Review) TableName() string { return "reviews" }
