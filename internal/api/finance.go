package api

import (
	"net/http"
	"strings"
	"time"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/models/dtos"
	"label-cabinet/backstage/internal/services"
)

// GetBalance handles GET /api/finance/balance
//
// @Summary      Balance and recent ledger
// @Tags         Finance
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Router       /api/finance/balance [get]
func (h *Handlers) GetBalance() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		balance, err := h.deps.Services.Finance.GetBalance(r.Context(), claims.UserID())
		respond(w, initTime, "Balance fetched", balance, err)
	})
}

func (h *Handlers) ListMyPayouts() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		payouts, err := h.deps.Services.Finance.ListPayouts(r.Context(), claims.UserID())
		respond(w, initTime, "Payouts fetched", payouts, err)
	})
}

func (h *Handlers) ListMyWithdrawals() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		list, err := h.deps.Services.Finance.ListWithdrawals(r.Context(), claims.UserID())
		respond(w, initTime, "Withdrawals fetched", list, err)
	})
}

// RequestWithdrawal handles POST /api/finance/withdrawals
//
// @Summary      Request a withdrawal
// @Description  Debits the balance and records a pending request atomically. A repeated
// @Description  Idempotency-Key returns the original request with 200 instead of 201.
// @Tags         Finance
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string              false  "Client generated key"
// @Param        input            body    dtos.WithdrawalReq  true   "Withdrawal"
// @Success      201  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Failure      422  {object}  dtos.APIResponse
// @Router       /api/finance/withdrawals [post]
func (h *Handlers) RequestWithdrawal() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.WithdrawalReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		wr, created, err := h.deps.Services.Finance.RequestWithdrawal(r.Context(), claims.UserID(), req, key)
		if err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		if !created {
			respond(w, initTime, "Withdrawal already requested", services.MaskWithdrawal(*wr), nil)
			return
		}
		respond(w, initTime, "Withdrawal requested", services.MaskWithdrawal(*wr), nil, http.StatusCreated)
	})
}

// ListAllWithdrawals handles GET /api/admin/withdrawals?status=
func (h *Handlers) ListAllWithdrawals() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		list, err := h.deps.Services.Finance.ListAllWithdrawals(r.Context(), r.URL.Query().Get("status"))
		respond(w, initTime, "Withdrawals fetched", list, err)
	})
}

// DecideWithdrawal handles POST /api/admin/withdrawals/{id}/{approve|complete|reject}
func (h *Handlers) DecideWithdrawal(action string) http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.WithdrawalDecisionReq
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				respond(w, initTime, "", nil, err)
				return
			}
		}

		finance := h.deps.Services.Finance
		decide := finance.ApproveWithdrawal
		message := "Withdrawal approved"
		switch action {
		case "complete":
			decide = finance.CompleteWithdrawal
			message = "Withdrawal completed"
		case "reject":
			decide = finance.RejectWithdrawal
			message = "Withdrawal rejected"
		}

		resp, err := decide(r.Context(), claims.UserID(), urlID(r), req.Comment)
		respond(w, initTime, message, resp, err)
	})
}

// CreatePayout handles POST /api/admin/payouts
func (h *Handlers) CreatePayout() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time) {
		var req dtos.PayoutReq
		if err := decodeJSON(w, r, &req); err != nil {
			respond(w, initTime, "", nil, err)
			return
		}

		payout, err := h.deps.Services.Finance.CreatePayout(r.Context(), claims.UserID(), req)
		respond(w, initTime, "Payout created", payout, err, http.StatusCreated)
	})
}

// ListAllPayouts handles GET /api/admin/payouts?user_id=
func (h *Handlers) ListAllPayouts() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		payouts, err := h.deps.Services.Finance.ListAllPayouts(r.Context(), r.URL.Query().Get("user_id"))
		respond(w, initTime, "Payouts fetched", payouts, err)
	})
}

func (h *Handlers) FinanceSummary() http.HandlerFunc {
	return withClaims(func(w http.ResponseWriter, r *http.Request, _ auth.UserClaims, initTime time.Time) {
		summary, err := h.deps.Services.Finance.FinanceSummary(r.Context())
		respond(w, initTime, "Summary fetched", summary, err)
	})
}
