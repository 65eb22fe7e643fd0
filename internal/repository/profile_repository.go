package repository

import (
	"context"

	"producer-chat/internal/domain/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) ResolveProfiles(ctx context.Context, ids []uuid.UUID) ([]user.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []user.Profile
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
