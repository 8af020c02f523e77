package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

type ProfileRepositoryGORM struct {
	db *gorm.DB
}

// NewProfileRepositoryGORM creates a new GORM-based profile repository
func NewProfileRepositoryGORM(db *gorm.DB) *ProfileRepositoryGORM {
	return &ProfileRepositoryGORM{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *ProfileRepositoryGORM) WithTx(tx *gorm.DB) *ProfileRepositoryGORM {
	return &ProfileRepositoryGORM{db: tx}
}

func (r *ProfileRepositoryGORM) GetByID(ctx context.Context, id string) (*gormModels.Profile, error) {
	var profile gormModels.Profile

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	return &profile, nil
}

// EmailTaken reports whether another profile already uses email.
func (r *ProfileRepositoryGORM) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *ProfileRepositoryGORM) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check member id: %w", err)
	}
	return count > 0, nil
}

func (r *ProfileRepositoryGORM) Create(ctx context.Context, profile *gormModels.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Update writes the given columns of a profile.
func (r *ProfileRepositoryGORM) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, constants.ErrNotFound)
	}
	return nil
}

// LockByRole returns the ids holding role and locks those rows until the
// transaction ends. Rows demoted by a concurrent transaction drop out once
// it commits.
func (r *ProfileRepositoryGORM) LockByRole(ctx context.Context, role constants.Role) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", role).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock profiles: %w", err)
	}
	return ids, nil
}

func (r *ProfileRepositoryGORM) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&gormModels.Profile{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// List searches profiles by email, nickname or member id, newest first.
func (r *ProfileRepositoryGORM) List(ctx context.Context, search string, role constants.Role, page, perPage int) ([]gormModels.Profile, int64, error) {
	q := r.db.WithContext(ctx).Model(&gormModels.Profile{})

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(nickname) LIKE ? OR LOWER(member_id) LIKE ?", like, like, like)
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	var profiles []gormModels.Profile
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, total, nil
}
