package handler

import (
	"context"
	"time"

	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/middleware"
	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
	"github.com/ecocivic/civicledger/internal/service"
)

// AccountHandler exposes the deposit ledger to the authenticated
// citizen: balances, deposits, reward claims and the account's
// compliance standing.
type AccountHandler struct {
	Ledger   *service.Ledger
	Fraud    *service.Fraud
	Accounts repository.AccountStore
}

func NewAccountHandler(ledger *service.Ledger, fraud *service.Fraud, accounts repository.AccountStore) *AccountHandler {
	return &AccountHandler{Ledger: ledger, Fraud: fraud, Accounts: accounts}
}

type depositReq struct {
	Amount uint64 `json:"amount"`
}

type balanceResp struct {
	Identity       string `json:"identity"`
	DepositBalance uint64 `json:"deposit_balance"`
	PendingRewards uint64 `json:"pending_rewards"`
}

type statusResp struct {
	Identity          string `json:"identity"`
	Status            string `json:"status"`
	Permanent         bool   `json:"permanent_flag"`
	RecyclingStrikes  int    `json:"recycling_strikes"`
	RecyclingBanned   bool   `json:"recycling_banned"`
	InspectionPending bool   `json:"inspection_pending"`
}

// Deposit credits the caller's own deposit account.
func (h *AccountHandler) Deposit(c echo.Context) error {
	var req depositReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	identity := middleware.Identity(c)
	if err := h.Ledger.Deposit(ctx, identity, req.Amount); err != nil {
		return fail(c, err)
	}
	return h.balance(c, ctx, identity)
}

// Balance returns the caller's deposit balance and pending rewards.
func (h *AccountHandler) Balance(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.balance(c, ctx, middleware.Identity(c))
}

func (h *AccountHandler) balance(c echo.Context, ctx context.Context, identity string) error {
	a, err := h.Accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, balanceResp{
		Identity:       a.Identity,
		DepositBalance: a.DepositBalance,
		PendingRewards: a.PendingRewards,
	})
}

// ClaimRewards moves the caller's accumulated pending rewards into
// the spendable deposit balance and reports the claimed amount.
func (h *AccountHandler) ClaimRewards(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	identity := middleware.Identity(c)
	claimed, err := h.Ledger.ClaimRewards(ctx, identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"claimed": claimed})
}

// Status returns the caller's compliance standing: fraud state,
// permanent flag, recycling strikes and whether an inspection is
// open against the account.
func (h *AccountHandler) Status(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	identity := middleware.Identity(c)
	a, err := h.Accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, statusResp{
		Identity:          a.Identity,
		Status:            a.Status.String(),
		Permanent:         a.Permanent,
		RecyclingStrikes:  a.RecyclingStrikes,
		RecyclingBanned:   a.RecyclingBanned,
		InspectionPending: a.InspectionPending,
	})
}

// Debts lists the caller's retroactive debt records.
func (h *AccountHandler) Debts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	debts, err := h.Fraud.Debts(ctx, middleware.Identity(c))
	if err != nil {
		return fail(c, err)
	}
	if debts == nil {
		debts = []model.DebtRecord{}
	}
	return c.JSON(http.StatusOK, debts)
}

// reqCtx bounds a handler's downstream calls the way the rest of the
// API does: five seconds against the request context.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
