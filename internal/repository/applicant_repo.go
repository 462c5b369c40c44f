package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gigmarket/internal/domain"
)

type ApplicantRepository struct {
	db *gorm.DB
}

func NewApplicantRepository(db *gorm.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

func (r *ApplicantRepository) Create(ctx context.Context, a *domain.Applicant) error {
	a.AppliedAt = a.AppliedAt.UTC()
	return wrap("create applicant", r.db.WithContext(ctx).Create(a).Error)
}

func (r *ApplicantRepository) GetByID(ctx context.Context, id int64) (*domain.Applicant, error) {
	var a domain.Applicant
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, wrap("get applicant", err)
	}
	return &a, nil
}

// FindActive returns the worker's pending or accepted applicant for the order.
func (r *ApplicantRepository) FindActive(ctx context.Context, orderID, workerID int64) (*domain.Applicant, error) {
	var a domain.Applicant
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND worker_id = ? AND status IN ?", orderID, workerID, domain.ActiveApplicantStatuses).
		Order("id DESC").
		First(&a).Error
	if err != nil {
		return nil, wrap("find active applicant", err)
	}
	return &a, nil
}

func (r *ApplicantRepository) ListByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error) {
	q := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []domain.Applicant
	if err := q.Order("applied_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, wrap("list applicants", err)
	}
	return out, nil
}

func (r *ApplicantRepository) ListByWorker(ctx context.Context, workerID int64, statuses ...domain.ApplicantStatus) ([]domain.Applicant, error) {
	q := r.db.WithContext(ctx).Where("worker_id = ?", workerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []domain.Applicant
	if err := q.Order("applied_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, wrap("list worker applicants", err)
	}
	return out, nil
}

func (r *ApplicantRepository) CountByOrder(ctx context.Context, orderID int64, statuses ...domain.ApplicantStatus) (int, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&domain.Applicant{}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, wrap("count applicants", err)
	}
	return int(n), nil
}

// CompareAndSetStatus moves the applicant from one status to another only if
// the row still holds the expected status. This is the single
// synchronisation point for concurrent lifecycle operations.
func (r *ApplicantRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.ApplicantStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Applicant{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, wrap("update applicant status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListCommitments returns the worker's applicants in the given statuses whose
// order is scheduled in [from, to). A zero to leaves the range open.
func (r *ApplicantRepository) ListCommitments(ctx context.Context, workerID int64, statuses []domain.ApplicantStatus, from, to time.Time) ([]domain.Commitment, error) {
	q := r.db.WithContext(ctx).
		Table("applicants").
		Select("applicants.id AS applicant_id, applicants.order_id, applicants.worker_id, applicants.status, orders.service_date, applicants.accepted_at").
		Joins("JOIN orders ON orders.id = applicants.order_id").
		Where("applicants.worker_id = ?", workerID).
		Where("applicants.status IN ?", statuses)
	if !from.IsZero() {
		q = q.Where("orders.service_date >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("orders.service_date < ?", to.UTC())
	}

	var out []domain.Commitment
	if err := q.Order("orders.service_date ASC, applicants.id ASC").Scan(&out).Error; err != nil {
		return nil, wrap("list commitments", err)
	}
	return out, nil
}

// completeAccepted flips the order's accepted applicants to completed inside
// tx. Their calendar day is released, since only accepted work blocks a day.
func completeAccepted(tx *gorm.DB, orderID int64) ([]domain.Applicant, error) {
	var accepted []domain.Applicant
	err := tx.Where("order_id = ? AND status = ?", orderID, domain.ApplicantAccepted).
		Order("id ASC").
		Find(&accepted).Error
	if err != nil || len(accepted) == 0 {
		return nil, err
	}
	err = tx.Model(&domain.Applicant{}).
		Where("id IN ? AND status = ?", applicantIDs(accepted), domain.ApplicantAccepted).
		Updates(map[string]any{
			"status":       domain.ApplicantCompleted,
			"accepted_day": nil,
		}).Error
	if err != nil {
		return nil, err
	}
	for i := range accepted {
		accepted[i].Status = domain.ApplicantCompleted
		accepted[i].AcceptedDay = nil
	}
	return accepted, nil
}

// deleteActive hard-deletes the order's pending and accepted applicants
// inside tx and returns what was removed.
func deleteActive(tx *gorm.DB, orderID int64) ([]domain.Applicant, error) {
	var active []domain.Applicant
	err := tx.Where("order_id = ? AND status IN ?", orderID, domain.ActiveApplicantStatuses).
		Order("id ASC").
		Find(&active).Error
	if err != nil || len(active) == 0 {
		return nil, err
	}
	err = tx.Where("id IN ? AND status IN ?", applicantIDs(active), domain.ActiveApplicantStatuses).
		Delete(&domain.Applicant{}).Error
	if err != nil {
		return nil, err
	}
	return active, nil
}

func applicantIDs(list []domain.Applicant) []int64 {
	ids := make([]int64, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}
