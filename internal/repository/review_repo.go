package repository

import (
	"context"

	"gorm.io/gorm"

	"gigmarket/internal/domain"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return wrap("create review", r.db.WithContext(ctx).Create(rv).Error)
}

func (r *ReviewRepository) ListByWorker(ctx context.Context, workerID int64, limit, offset int) ([]domain.Review, error) {
	limit, offset = normalizeLimit(limit, offset)
	var out []domain.Review
	err := r.db.WithContext(ctx).
		Where("worker_id = ?", workerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	return out, nil
}

// Summary returns the worker's average rating and review count.
func (r *ReviewRepository) Summary(ctx context.Context, workerID int64) (float64, int64, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("worker_id = ?", workerID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, wrap("summarize reviews", err)
	}
	return row.Average, row.Count, nil
}
