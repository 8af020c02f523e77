package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/events"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
	"label-cabinet/backstage/internal/models/dtos"
	"label-cabinet/backstage/internal/models/entities"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
)

const ledgerLimit = 50

// SummaryReader computes label-wide money totals.
type SummaryReader interface {
	FinanceSummary(ctx context.Context) (*entities.FinanceSummary, error)
}

// FinanceService handles balances, payouts and withdrawal requests.
type FinanceService struct {
	db            *gorm.DB
	finance       *repositories.FinanceRepository
	reports       SummaryReader
	events        events.Publisher
	realtime      realtime.Publisher
	metrics       *metrics.MetricsRegistry
	minWithdrawal decimal.Decimal
	inflight      singleflight.Group
}

func NewFinanceService(
	db *gorm.DB,
	reports SummaryReader,
	publisher events.Publisher,
	rt realtime.Publisher,
	minWithdrawal decimal.Decimal,
) *FinanceService {
	return &FinanceService{
		db:            db,
		finance:       repositories.NewFinanceRepository(db),
		reports:       reports,
		events:        publisher,
		realtime:      rt,
		metrics:       metrics.NewMetricsRegistry(),
		minWithdrawal: minWithdrawal,
	}
}

// parseAmount accepts positive amounts with at most two decimal places.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, constants.Invalid("amount must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, constants.Invalid("amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, constants.Invalid("amount must have at most two decimal places")
	}
	return amount, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// buildWithdrawal validates the request and returns the row to insert.
func (s *FinanceService) buildWithdrawal(userID string, req dtos.WithdrawalReq) (*gormModels.WithdrawalRequest, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(s.minWithdrawal) {
		return nil, constants.Invalid("minimum withdrawal is %s", s.minWithdrawal.StringFixed(2))
	}

	w := &gormModels.WithdrawalRequest{
		UserID: userID,
		Amount: amount,
		Method: constants.WithdrawalMethod(req.Method),
		Status: constants.WithdrawalPending,
	}

	switch w.Method {
	case constants.MethodCard:
		number := strings.ReplaceAll(trimmed(req.CardNumber), " ", "")
		if !isDigits(number) || len(number) < 12 || len(number) > 19 {
			return nil, constants.Invalid("card_number must contain 12 to 19 digits")
		}
		holder := trimmed(req.CardHolder)
		if holder == "" {
			return nil, constants.Invalid("card_holder is required")
		}
		w.CardNumber = &number
		w.CardHolder = &holder
	case constants.MethodBank:
		bank, account, recipient := trimmed(req.BankName), trimmed(req.AccountNumber), trimmed(req.RecipientName)
		if bank == "" || account == "" || recipient == "" {
			return nil, constants.Invalid("bank_name, account_number and recipient_name are required")
		}
		w.BankName = &bank
		w.AccountNumber = &account
		w.RecipientName = &recipient
	default:
		return nil, constants.Invalid("method must be card or bank")
	}

	return w, nil
}

// RequestWithdrawal debits the balance and records a pending withdrawal in one
// transaction. A repeated idempotency key returns the original request with
// created=false. Identical concurrent submissions share one execution.
func (s *FinanceService) RequestWithdrawal(ctx context.Context, userID string, req dtos.WithdrawalReq, idempotencyKey string) (*gormModels.WithdrawalRequest, bool, error) {
	w, err := s.buildWithdrawal(userID, req)
	if err != nil {
		return nil, false, err
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		w.IdempotencyKey = &idempotencyKey
	}

	flightKey := strings.Join([]string{userID, idempotencyKey, w.Amount.String(), string(w.Method)}, "|")
	type result struct {
		withdrawal *gormModels.WithdrawalRequest
		created    bool
	}

	v, err, _ := s.inflight.Do(flightKey, func() (interface{}, error) {
		// Collapsed callers share this run, so one caller going away must not cancel it.
		ctx := context.WithoutCancel(ctx)
		if idempotencyKey != "" {
			existing, err := s.finance.FindByIdempotencyKey(ctx, userID, idempotencyKey)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return result{withdrawal: existing}, nil
			}
		}

		if err := s.debitAndRecord(ctx, w); err != nil {
			if idempotencyKey != "" && !errors.Is(err, constants.ErrInsufficientBalance) {
				// Another instance may have inserted the same key first.
				if existing, findErr := s.finance.FindByIdempotencyKey(ctx, userID, idempotencyKey); findErr == nil && existing != nil {
					return result{withdrawal: existing}, nil
				}
			}
			return nil, err
		}
		return result{withdrawal: w, created: true}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(result)
	if res.created {
		s.metrics.WithdrawalsTotal.WithLabelValues(string(constants.WithdrawalPending)).Inc()
		s.metrics.WithdrawalAmount.Observe(res.withdrawal.Amount.InexactFloat64())
		events.PublishAsync(s.events, events.New(events.WithdrawalRequested, res.withdrawal.ID, MaskWithdrawal(*res.withdrawal)))
		s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableWithdrawals, MaskWithdrawal(*res.withdrawal), userID))
		logging.Info("Withdrawal requested", "user_id", userID, "withdrawal_id", res.withdrawal.ID, "amount", res.withdrawal.Amount.String())
	}
	return res.withdrawal, res.created, nil
}

func (s *FinanceService) debitAndRecord(ctx context.Context, w *gormModels.WithdrawalRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		finance := s.finance.WithTx(tx)

		balance, err := finance.Debit(ctx, w.UserID, w.Amount)
		if err != nil {
			return err
		}

		if err := finance.CreateWithdrawal(ctx, w); err != nil {
			return err
		}

		return finance.AppendLedger(ctx, &gormModels.BalanceTransaction{
			UserID:       w.UserID,
			Kind:         constants.LedgerWithdrawal,
			Amount:       w.Amount.Neg(),
			BalanceAfter: balance,
			ReferenceID:  w.ID,
		})
	})
}

// MaskWithdrawal hides all but the last four card digits.
func MaskWithdrawal(w gormModels.WithdrawalRequest) dtos.WithdrawalResponse {
	resp := dtos.WithdrawalResponse{WithdrawalRequest: w}
	if w.CardNumber != nil {
		masked := common.MaskCardNumber(*w.CardNumber)
		resp.CardNumber = &masked
	}
	return resp
}

func maskAll(list []gormModels.WithdrawalRequest) []dtos.WithdrawalResponse {
	out := make([]dtos.WithdrawalResponse, 0, len(list))
	for _, w := range list {
		out = append(out, MaskWithdrawal(w))
	}
	return out
}

func (s *FinanceService) ListWithdrawals(ctx context.Context, userID string) ([]dtos.WithdrawalResponse, error) {
	list, err := s.finance.ListWithdrawals(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return maskAll(list), nil
}

func (s *FinanceService) ListAllWithdrawals(ctx context.Context, status string) ([]dtos.WithdrawalResponse, error) {
	list, err := s.finance.ListWithdrawals(ctx, "", constants.WithdrawalStatus(status))
	if err != nil {
		return nil, err
	}
	return maskAll(list), nil
}

func (s *FinanceService) ApproveWithdrawal(ctx context.Context, actorID, id string, comment *string) (*dtos.WithdrawalResponse, error) {
	return s.decide(ctx, actorID, id, constants.WithdrawalApproved, comment)
}

func (s *FinanceService) CompleteWithdrawal(ctx context.Context, actorID, id string, comment *string) (*dtos.WithdrawalResponse, error) {
	return s.decide(ctx, actorID, id, constants.WithdrawalCompleted, comment)
}

// RejectWithdrawal refunds the amount and appends a refund ledger entry.
func (s *FinanceService) RejectWithdrawal(ctx context.Context, actorID, id string, comment *string) (*dtos.WithdrawalResponse, error) {
	return s.decide(ctx, actorID, id, constants.WithdrawalRejected, comment)
}

func (s *FinanceService) decide(ctx context.Context, actorID, id string, next constants.WithdrawalStatus, comment *string) (*dtos.WithdrawalResponse, error) {
	var before, after *gormModels.WithdrawalRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		finance := s.finance.WithTx(tx)

		w, err := finance.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		before = w

		if !w.Status.CanTransition(next) {
			return fmt.Errorf("withdrawal is %s, cannot become %s: %w", w.Status, next, constants.ErrInvalidTransition)
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{
			"status":       next,
			"processed_by": actorID,
			"processed_at": now,
		}
		if c := trimmed(comment); c != "" {
			fields["admin_comment"] = c
		}

		ok, err := finance.UpdateWithdrawalFrom(ctx, id, w.Status, fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("withdrawal %s changed concurrently: %w", id, constants.ErrConflict)
		}

		if next == constants.WithdrawalRejected {
			balance, err := finance.Credit(ctx, w.UserID, w.Amount)
			if err != nil {
				return err
			}
			if err := finance.AppendLedger(ctx, &gormModels.BalanceTransaction{
				UserID:       w.UserID,
				Kind:         constants.LedgerRefund,
				Amount:       w.Amount,
				BalanceAfter: balance,
				ReferenceID:  w.ID,
			}); err != nil {
				return err
			}
		}

		after, err = finance.GetWithdrawal(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := MaskWithdrawal(*after)
	s.metrics.WithdrawalsTotal.WithLabelValues(string(next)).Inc()
	events.PublishAsync(s.events, events.New(events.WithdrawalStatusChanged, after.ID, map[string]any{
		"withdrawal": resp,
		"from":       before.Status,
		"to":         next,
	}))
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventUpdate, constants.TableWithdrawals, resp, after.UserID).
		WithOld(MaskWithdrawal(*before)))
	logging.Info("Withdrawal status changed", "withdrawal_id", id, "from", before.Status, "to", next, "actor", actorID)
	return &resp, nil
}

// CreatePayout books a royalty credit: payout row, balance credit and ledger
// entry in one transaction.
func (s *FinanceService) CreatePayout(ctx context.Context, actorID string, req dtos.PayoutReq) (*gormModels.Payout, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, constants.Invalid("user_id is required")
	}
	period := strings.TrimSpace(req.Period)
	if period == "" || len(period) > 32 {
		return nil, constants.Invalid("period is required and must be at most 32 characters")
	}

	payout := &gormModels.Payout{
		UserID:      userID,
		Amount:      amount,
		Period:      period,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   actorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		finance := s.finance.WithTx(tx)

		balance, err := finance.Credit(ctx, userID, amount)
		if err != nil {
			return err
		}
		if err := finance.CreatePayout(ctx, payout); err != nil {
			return err
		}
		return finance.AppendLedger(ctx, &gormModels.BalanceTransaction{
			UserID:       userID,
			Kind:         constants.LedgerPayout,
			Amount:       amount,
			BalanceAfter: balance,
			ReferenceID:  payout.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PayoutsTotal.Inc()
	events.PublishAsync(s.events, events.New(events.PayoutCreated, payout.ID, payout))
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TablePayouts, payout, userID))
	logging.Info("Payout created", "payout_id", payout.ID, "user_id", userID, "amount", amount.String(), "actor", actorID)
	return payout, nil
}

func (s *FinanceService) ListPayouts(ctx context.Context, userID string) ([]gormModels.Payout, error) {
	return s.finance.ListPayouts(ctx, userID)
}

// ListAllPayouts lists every payout, or only one user's when userID is set.
func (s *FinanceService) ListAllPayouts(ctx context.Context, userID string) ([]gormModels.Payout, error) {
	return s.finance.ListPayouts(ctx, strings.TrimSpace(userID))
}

// GetBalance returns the current balance and the latest ledger entries.
func (s *FinanceService) GetBalance(ctx context.Context, userID string) (*dtos.BalanceResponse, error) {
	balance, err := s.finance.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.finance.Ledger(ctx, userID, ledgerLimit)
	if err != nil {
		return nil, err
	}
	return &dtos.BalanceResponse{Balance: balance, Ledger: ledger}, nil
}

func (s *FinanceService) FinanceSummary(ctx context.Context) (*entities.FinanceSummary, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("finance summary is not configured")
	}
	return s.reports.FinanceSummary(ctx)
}
