package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigmarket/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

// GetByIDs returns the users found, keyed by id. Missing ids are skipped.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	out := make(map[int64]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, wrap("get users", err)
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

// Save inserts or refreshes a directory entry mirrored from the identity
// provider.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "role", "locale", "updated_at"}),
		}).
		Create(u).Error
	return wrap("save user", err)
}
