package gorm

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
)

// Payout is a royalty credit booked by an admin.
type Payout struct {
	ID          string          `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID      string          `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Period      string          `gorm:"column:period" json:"period"`
	Description string          `gorm:"column:description" json:"description"`
	CreatedBy   string          `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Payout) TableName() string {
	return "payouts"
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type WithdrawalRequest struct {
	ID             string                     `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID         string                     `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_withdrawal_idempotency,priority:1" json:"user_id"`
	Amount         decimal.Decimal            `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Method         constants.WithdrawalMethod `gorm:"column:method;type:varchar(8);not null" json:"method"`
	CardNumber     *string                    `gorm:"column:card_number" json:"card_number,omitempty"`
	CardHolder     *string                    `gorm:"column:card_holder" json:"card_holder,omitempty"`
	BankName       *string                    `gorm:"column:bank_name" json:"bank_name,omitempty"`
	AccountNumber  *string                    `gorm:"column:account_number" json:"account_number,omitempty"`
	RecipientName  *string                    `gorm:"column:recipient_name" json:"recipient_name,omitempty"`
	Status         constants.WithdrawalStatus `gorm:"column:status;type:varchar(16);index;not null;default:pending" json:"status"`
	AdminComment   *string                    `gorm:"column:admin_comment" json:"admin_comment,omitempty"`
	IdempotencyKey *string                    `gorm:"column:idempotency_key;uniqueIndex:idx_withdrawal_idempotency,priority:2" json:"-"`
	ProcessedBy    *string                    `gorm:"column:processed_by" json:"processed_by,omitempty"`
	ProcessedAt    *time.Time                 `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&w.ID)
	return nil
}

// BalanceTransaction is one ledger line; Amount is signed.
type BalanceTransaction struct {
	ID           string               `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID       string               `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	Kind         constants.LedgerKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Amount       decimal.Decimal      `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal      `gorm:"column:balance_after;type:numeric(14,2);not null" json:"balance_after"`
	ReferenceID  string               `gorm:"column:reference_id" json:"reference_id"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (BalanceTransaction) TableName() string {
	return "balance_transactions"
}

func (b *BalanceTransaction) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}
