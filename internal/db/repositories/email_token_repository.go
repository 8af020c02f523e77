package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

type EmailTokenRepository struct {
	db *gorm.DB
}

func NewEmailTokenRepository(db *gorm.DB) *EmailTokenRepository {
	return &EmailTokenRepository{db: db}
}

func (r *EmailTokenRepository) WithTx(tx *gorm.DB) *EmailTokenRepository {
	return &EmailTokenRepository{db: tx}
}

func (r *EmailTokenRepository) Create(ctx context.Context, token *gormModels.EmailToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create email token: %w", err)
	}
	return nil
}

// InvalidateForUser marks every unused token of the user as used.
func (r *EmailTokenRepository) InvalidateForUser(ctx context.Context, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.EmailToken{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		Update("used_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate email tokens: %w", err)
	}
	return nil
}

func (r *EmailTokenRepository) GetByToken(ctx context.Context, token string) (*gormModels.EmailToken, error) {
	var t gormModels.EmailToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("email token: %w", constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch email token: %w", err)
	}
	return &t, nil
}

// MarkUsed consumes the token; false means it was consumed concurrently.
func (r *EmailTokenRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.EmailToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark email token used: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
