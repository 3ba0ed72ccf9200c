package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/middleware"
	"github.com/ecocivic/civicledger/internal/service"
)

// InspectionHandler exposes the inspection workflow to whitelisted
// inspectors: due checks, scheduling and completion.
type InspectionHandler struct {
	Inspections *service.Inspections
}

func NewInspectionHandler(i *service.Inspections) *InspectionHandler {
	return &InspectionHandler{Inspections: i}
}

type scheduleReq struct {
	Identity string `json:"identity"`
}

type completeReq struct {
	FraudFound bool   `json:"fraud_found"`
	Actual     uint64 `json:"actual_reading"`
	Reported   uint64 `json:"reported_reading"`
	Reason     string `json:"reason"`
}

// DueSelf reports whether the caller's own inspection cycle has
// elapsed.
func (h *InspectionHandler) DueSelf(c echo.Context) error {
	identity := middleware.Identity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	due, err := h.Inspections.IsDue(ctx, identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": identity, "due": due})
}

// Due reports whether an account's inspection cycle has elapsed.
func (h *InspectionHandler) Due(c echo.Context) error {
	identity := strings.TrimSpace(c.Param("identity"))
	ctx, cancel := reqCtx(c)
	defer cancel()
	due, err := h.Inspections.IsDue(ctx, identity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": identity, "due": due})
}

// Schedule opens an inspection against an account. The caller must
// be a whitelisted inspector.
func (h *InspectionHandler) Schedule(c echo.Context) error {
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	insp, err := h.Inspections.Schedule(ctx, middleware.Identity(c), strings.TrimSpace(req.Identity))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, insp)
}

// Complete records the on-site result of an inspection. Fraud
// findings flow straight into the penalty state machine.
func (h *InspectionHandler) Complete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inspection id"})
	}
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Inspections.Complete(ctx, middleware.Identity(c), id, req.FraudFound, req.Actual, req.Reported, strings.TrimSpace(req.Reason)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": true})
}

// Get returns a single inspection record.
func (h *InspectionHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inspection id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	insp, err := h.Inspections.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, insp)
}
