package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/entities"
)

// ReportRepo runs the hand-written reporting queries.
type ReportRepo struct {
	db *sqlx.DB
}

func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) FinanceSummary(ctx context.Context) (*entities.FinanceSummary, error) {
	var summary entities.FinanceSummary
	if err := r.db.GetContext(ctx, &summary, constants.FinanceSummary); err != nil {
		return nil, fmt.Errorf("failed to load finance summary: %w", err)
	}
	return &summary, nil
}
