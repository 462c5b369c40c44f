package domain

import "time"

type OrderStatus string

const (
	OrderNew              OrderStatus = "new"
	OrderResponseReceived OrderStatus = "response_received"
	OrderInProgress       OrderStatus = "in_progress"
	OrderCompleted        OrderStatus = "completed"
	OrderCancelled        OrderStatus = "cancelled"
)

// EditableOrderStatuses are the statuses in which a customer may still edit
// or cancel the order.
var EditableOrderStatuses = []OrderStatus{OrderNew, OrderResponseReceived}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderNew, OrderResponseReceived, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) Editable() bool {
	return s == OrderNew || s == OrderResponseReceived
}

type Order struct {
	ID              int64       `json:"id" gorm:"primaryKey"`
	CustomerID      int64       `json:"customer_id" gorm:"not null;index"`
	Title           string      `json:"title" gorm:"size:120;not null"`
	Description     string      `json:"description,omitempty" gorm:"type:text"`
	Category        string      `json:"category" gorm:"size:64;not null;index"`
	Location        string      `json:"location" gorm:"size:255;not null"`
	Latitude        *float64    `json:"latitude,omitempty"`
	Longitude       *float64    `json:"longitude,omitempty"`
	Budget          int64       `json:"budget" gorm:"not null;default:0"`
	WorkersNeeded   int         `json:"workers_needed" gorm:"not null;default:1"`
	ServiceDate     time.Time   `json:"service_date" gorm:"not null;index"`
	Photos          []string    `json:"photos" gorm:"serializer:json;type:text"`
	Status          OrderStatus `json:"status" gorm:"size:32;not null;index"`
	ApplicantsCount int         `json:"applicants_count" gorm:"not null;default:0"`

	// FilledNotifiedAt marks that the customer was told every slot is taken.
	FilledNotifiedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
