package dtos

import (
	"time"

	"github.com/shopspring/decimal"

	gormModels "label-cabinet/backstage/internal/models/gorm"
)

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

type BalanceResponse struct {
	Balance decimal.Decimal                 `json:"balance"`
	Ledger  []gormModels.BalanceTransaction `json:"ledger"`
}

// WithdrawalResponse is a withdrawal request with the card number masked.
type WithdrawalResponse struct {
	gormModels.WithdrawalRequest
	CardNumber *string `json:"card_number,omitempty"`
}

type UploadResponse struct {
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type NewsResponse struct {
	gormModels.News
	HTML string `json:"html"`
}

type RealtimeTicketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OverviewResponse struct {
	Users              int64           `json:"users"`
	PendingReleases    int64           `json:"pending_releases"`
	OpenTickets        int64           `json:"open_tickets"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
}
