package entities

import "github.com/shopspring/decimal"

// FinanceSummary is the admin-wide money overview.
type FinanceSummary struct {
	TotalBalance       decimal.Decimal `db:"total_balance" json:"total_balance"`
	PendingWithdrawals int64           `db:"pending_withdrawals" json:"pending_withdrawals"`
	PendingAmount      decimal.Decimal `db:"pending_amount" json:"pending_amount"`
	PaidOut            decimal.Decimal `db:"paid_out" json:"paid_out"`
	TotalPayouts       decimal.Decimal `db:"total_payouts" json:"total_payouts"`
}
