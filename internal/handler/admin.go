package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/middleware"
	"github.com/ecocivic/civicledger/internal/service"
)

// AdminHandler groups the privileged surface: capability grants,
// ledger pause and withdrawals, inspector whitelisting, fraud
// reports, reactivation and recycling ban lifts. Every operation
// passes the caller's identity to the service, which enforces the
// required capability itself; the HTTP layer never decides privilege.
type AdminHandler struct {
	Registry    *service.Registry
	Ledger      *service.Ledger
	Fraud       *service.Fraud
	Inspections *service.Inspections
	Recycling   *service.Recycling
}

func NewAdminHandler(reg *service.Registry, ledger *service.Ledger, fraud *service.Fraud,
	insp *service.Inspections, rec *service.Recycling) *AdminHandler {
	return &AdminHandler{Registry: reg, Ledger: ledger, Fraud: fraud, Inspections: insp, Recycling: rec}
}

type capabilityReq struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

type identityReq struct {
	Identity string `json:"identity"`
}

type withdrawReq struct {
	Identity string `json:"identity"`
	Amount   uint64 `json:"amount"`
	To       string `json:"to"`
}

type fraudReportReq struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

// GrantCapability assigns a role capability to an identity.
func (h *AdminHandler) GrantCapability(c echo.Context) error {
	var req capabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Registry.Grant(ctx, middleware.Identity(c), strings.ToUpper(strings.TrimSpace(req.Role)), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"granted": true})
}

// RevokeCapability removes a role capability from an identity.
func (h *AdminHandler) RevokeCapability(c echo.Context) error {
	var req capabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Registry.Revoke(ctx, middleware.Identity(c), strings.ToUpper(strings.TrimSpace(req.Role)), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": true})
}

// Pause halts all balance-changing ledger operations.
func (h *AdminHandler) Pause(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Ledger.Pause(ctx, middleware.Identity(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"paused": true})
}

// Unpause resumes ledger operations.
func (h *AdminHandler) Unpause(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Ledger.Unpause(ctx, middleware.Identity(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"paused": false})
}

// Withdraw pays out from an account while the ledger is running.
func (h *AdminHandler) Withdraw(c echo.Context) error {
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Ledger.Withdraw(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity), req.Amount, strings.TrimSpace(req.To)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawn": req.Amount})
}

// EmergencyWithdraw pays out while the ledger is paused. It exists
// for evacuating funds during an incident and is rejected when the
// ledger is running normally.
func (h *AdminHandler) EmergencyWithdraw(c echo.Context) error {
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Ledger.EmergencyWithdraw(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity), req.Amount, strings.TrimSpace(req.To)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawn": req.Amount})
}

// ReportFraud ingests an automated anomaly report against an
// account. Requires the fraud-manager capability.
func (h *AdminHandler) ReportFraud(c echo.Context) error {
	var req fraudReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Fraud.ReportFraud(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity), strings.TrimSpace(req.Reason)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reported": true})
}

// Reactivate returns a suspended account to active standing.
func (h *AdminHandler) Reactivate(c echo.Context) error {
	var req identityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Fraud.Reactivate(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reactivated": true})
}

// AddInspector whitelists an inspector identity.
func (h *AdminHandler) AddInspector(c echo.Context) error {
	var req identityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Inspections.AddInspector(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"added": true})
}

// RemoveInspector drops an inspector from the whitelist.
func (h *AdminHandler) RemoveInspector(c echo.Context) error {
	var req identityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Inspections.RemoveInspector(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": true})
}

// LiftRecyclingBan restores a banned account's pipeline access.
func (h *AdminHandler) LiftRecyclingBan(c echo.Context) error {
	var req identityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Recycling.LiftBan(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"lifted": true})
}
