package review

import (
	"context"
	"errors"
	"log/slog"

	"gigmarket/internal/domain"
	"gigmarket/internal/pkg/validator"
	"gigmarket/internal/repository"
)

type Repository interface {
	Create(ctx context.Context, rv *domain.Review) error
	ListByWorker(ctx context.Context, workerID int64, limit, offset int) ([]domain.Review, error)
	Summary(ctx context.Context, workerID int64) (float64, int64, error)
}

type OrderGate interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

type ApplicantGate interface {
	ListByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error)
}

type Service struct {
	reviews    Repository
	orders     OrderGate
	applicants ApplicantGate
	logger     *slog.Logger
}

func NewService(reviews Repository, orders OrderGate, applicants ApplicantGate, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reviews: reviews, orders: orders, applicants: applicants, logger: logger}
}

// Create records the customer's rating of a worker who completed the order.
// Reviews are append-only, one per order and worker.
func (s *Service) Create(ctx context.Context, actor domain.Actor, orderID int64, req CreateReviewRequest) (*domain.Review, error) {
	req.normalize()
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.ID {
		return nil, ErrNotOrderOwner
	}
	if o.Status != domain.OrderCompleted {
		return nil, ErrOrderNotDone
	}

	done, err := s.applicants.ListByOrder(ctx, orderID, domain.ApplicantCompleted)
	if err != nil {
		return nil, err
	}
	if !hasWorker(done, req.WorkerID) {
		return nil, ErrWorkerNotOnJob
	}

	rv := &domain.Review{
		OrderID:    orderID,
		WorkerID:   req.WorkerID,
		CustomerID: actor.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	s.logger.Info("review created", "review_id", rv.ID, "order_id", orderID, "worker_id", req.WorkerID, "rating", req.Rating)
	return rv, nil
}

func (s *Service) ListForWorker(ctx context.Context, workerID int64, q ListQuery) (*WorkerReviews, error) {
	items, err := s.reviews.ListByWorker(ctx, workerID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.reviews.Summary(ctx, workerID)
	if err != nil {
		return nil, err
	}
	return &WorkerReviews{Reviews: items, Average: avg, Count: count}, nil
}

func hasWorker(applicants []domain.Applicant, workerID int64) bool {
	for _, a := range applicants {
		if a.WorkerID == workerID {
			return true
		}
	}
	return false
}
