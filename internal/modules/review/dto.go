package review

import (
	"strings"

	"gigmarket/internal/domain"
)

type CreateReviewRequest struct {
	WorkerID int64  `json:"worker_id" validate:"required,gt=0"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment  string `json:"comment" validate:"max=2000"`
}

func (r *CreateReviewRequest) normalize() {
	r.Comment = strings.TrimSpace(r.Comment)
}

type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// WorkerReviews is a page of reviews plus the worker's overall rating.
type WorkerReviews struct {
	Reviews []domain.Review `json:"reviews"`
	Average float64         `json:"average"`
	Count   int64           `json:"count"`
}
