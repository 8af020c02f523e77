package repositories

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

// FinanceRepository covers payouts, withdrawal requests, the balance ledger
// and the balance column of profiles. Balance mutations must run inside a
// transaction obtained through WithTx.
type FinanceRepository struct {
	db *gorm.DB
}

func NewFinanceRepository(db *gorm.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

func (r *FinanceRepository) WithTx(tx *gorm.DB) *FinanceRepository {
	return &FinanceRepository{db: tx}
}

// Debit subtracts amount from the balance only when the balance covers it.
// Returns ErrInsufficientBalance when no row qualified.
func (r *FinanceRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, constants.ErrInsufficientBalance
	}
	return r.balance(ctx, userID)
}

// Credit adds amount to the balance and returns the new balance.
func (r *FinanceRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Profile{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to credit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, fmt.Errorf("profile %s: %w", userID, constants.ErrNotFound)
	}
	return r.balance(ctx, userID)
}

func (r *FinanceRepository) balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var profile gormModels.Profile
	err := r.db.WithContext(ctx).
		Select("balance").
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, fmt.Errorf("profile %s: %w", userID, constants.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return profile.Balance, nil
}

// Balance returns the current balance of a profile.
func (r *FinanceRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return r.balance(ctx, userID)
}

func (r *FinanceRepository) AppendLedger(ctx context.Context, entry *gormModels.BalanceTransaction) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Ledger returns the latest ledger entries of a user.
func (r *FinanceRepository) Ledger(ctx context.Context, userID string, limit int) ([]gormModels.BalanceTransaction, error) {
	var entries []gormModels.BalanceTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return entries, nil
}

func (r *FinanceRepository) CreatePayout(ctx context.Context, payout *gormModels.Payout) error {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

// ListPayouts returns payouts newest first; an empty userID lists everyone's.
func (r *FinanceRepository) ListPayouts(ctx context.Context, userID string) ([]gormModels.Payout, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var payouts []gormModels.Payout
	if err := q.Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return payouts, nil
}

func (r *FinanceRepository) CreateWithdrawal(ctx context.Context, w *gormModels.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *FinanceRepository) GetWithdrawal(ctx context.Context, id string) (*gormModels.WithdrawalRequest, error) {
	var w gormModels.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("withdrawal %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch withdrawal: %w", err)
	}
	return &w, nil
}

// FindByIdempotencyKey returns nil, nil when the user never used the key.
func (r *FinanceRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*gormModels.WithdrawalRequest, error) {
	var w gormModels.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&w).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch withdrawal by key: %w", err)
	}
	return &w, nil
}

// UpdateWithdrawalFrom changes a withdrawal only while it is still in status from.
func (r *FinanceRepository) UpdateWithdrawalFrom(ctx context.Context, id string, from constants.WithdrawalStatus, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update withdrawal: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListWithdrawals filters by user and status when they are non-empty.
func (r *FinanceRepository) ListWithdrawals(ctx context.Context, userID string, status constants.WithdrawalStatus) ([]gormModels.WithdrawalRequest, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var list []gormModels.WithdrawalRequest
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return list, nil
}

// PendingWithdrawals returns the number and total amount of pending requests.
func (r *FinanceRepository) PendingWithdrawals(ctx context.Context) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&gormModels.WithdrawalRequest{}).
		Select("COUNT(*) AS count, SUM(amount) AS total").
		Where("status = ?", constants.WithdrawalPending).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}
	if !row.Total.Valid {
		return row.Count, decimal.Zero, nil
	}
	return row.Count, row.Total.Decimal, nil
}
