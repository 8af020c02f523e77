package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/entities"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, constants.GetStatusByApiKey, key).StructScan(&keyRes)

	if err != nil {
		return nil, err
	}

	return &keyRes, nil
}

func (r *KeysRepo) Create(ctx context.Context, key, label string) error {
	if _, err := r.db.ExecContext(ctx, constants.InsertApiKey, key, label); err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}
