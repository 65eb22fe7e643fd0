package repository

import (
	"context"
	"errors"

	"producer-chat/internal/domain/moderation"
	chat_errors "producer-chat/pkg/errors"

	"gorm.io/gorm"
)

type PostgresModerationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &PostgresModerationRepository{db: db}
}

func (r *PostgresModerationRepository) CreateBlock(ctx context.Context, b *moderation.Block) error {
	res := r.db.WithContext(ctx).Create(b)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return chat_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresModerationRepository) CreateReport(ctx context.Context, rep *moderation.Report) error {
	res := r.db.WithContext(ctx).Create(rep)
	if res.Error != nil {
		return res.Error
	}
	return nil
}
