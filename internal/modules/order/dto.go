package order

import (
	"strings"
	"time"
)

type CreateOrderRequest struct {
	Title         string    `json:"title" validate:"required,min=3,max=120"`
	Description   string    `json:"description" validate:"max=2000"`
	Category      string    `json:"category" validate:"required,max=64"`
	Location      string    `json:"location" validate:"required,max=255"`
	Latitude      *float64  `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64  `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Budget        int64     `json:"budget" validate:"gte=0"`
	WorkersNeeded int       `json:"workers_needed" validate:"required,min=1,max=50"`
	ServiceDate   time.Time `json:"service_date" validate:"required"`
	Photos        []string  `json:"photos" validate:"max=10,dive,max=2048"`
}

func (r *CreateOrderRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.Location = strings.TrimSpace(r.Location)
}

// UpdateOrderRequest carries the editable fields. The service date is fixed
// once the order is posted.
type UpdateOrderRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=3,max=120"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Category      *string  `json:"category" validate:"omitempty,min=1,max=64"`
	Location      *string  `json:"location" validate:"omitempty,min=1,max=255"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Budget        *int64   `json:"budget" validate:"omitempty,gte=0"`
	WorkersNeeded *int     `json:"workers_needed" validate:"omitempty,min=1,max=50"`
	Photos        []string `json:"photos" validate:"omitempty,max=10,dive,max=2048"`
}

func (r *UpdateOrderRequest) normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.Title)
	trim(r.Description)
	trim(r.Location)
	if r.Category != nil {
		*r.Category = strings.ToLower(strings.TrimSpace(*r.Category))
	}
}

type ListMyOrdersQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type AvailableOrdersQuery struct {
	Category string `form:"category"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}
