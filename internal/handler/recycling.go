package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/middleware"
	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/service"
)

// RecyclingHandler exposes the declaration/redemption pipeline:
// citizens declare materials, staff redeem the resulting tokens.
type RecyclingHandler struct {
	Recycling *service.Recycling
}

func NewRecyclingHandler(r *service.Recycling) *RecyclingHandler {
	return &RecyclingHandler{Recycling: r}
}

type declareReq struct {
	Plastic    uint64 `json:"plastic_kg"`
	Glass      uint64 `json:"glass_kg"`
	Metal      uint64 `json:"metal_kg"`
	Paper      uint64 `json:"paper_kg"`
	Electronic uint64 `json:"electronic_units"`
}

type tokenResp struct {
	TokenID   string `json:"token_id"`
	Hash      string `json:"hash"`
	Reward    uint64 `json:"reward"`
	ExpiresAt string `json:"expires_at"`
}

type redeemReq struct {
	Hash    string `json:"hash"`
	Approve bool   `json:"approve"`
}

// Declare validates the caller's material declaration and issues a
// one-time token. The hash in the response is what gets encoded into
// the QR code shown at the facility.
func (h *RecyclingHandler) Declare(c echo.Context) error {
	var req declareReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Recycling.IssueToken(ctx, middleware.Identity(c), model.MaterialQuantities{
		Plastic:    req.Plastic,
		Glass:      req.Glass,
		Metal:      req.Metal,
		Paper:      req.Paper,
		Electronic: req.Electronic,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, tokenResp{
		TokenID:   t.TokenID,
		Hash:      t.Hash,
		Reward:    t.Reward,
		ExpiresAt: t.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Redeem consumes a scanned token. Staff capability is enforced by
// the service; approve=false records a fraudulent declaration and
// burns one of the declarer's strikes.
func (h *RecyclingHandler) Redeem(c echo.Context) error {
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Hash = strings.TrimSpace(req.Hash)
	if req.Hash == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hash required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Recycling.Redeem(ctx, middleware.Identity(c), req.Hash, req.Approve)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Token returns the declaration behind a scanned hash so staff can
// verify the materials before deciding.
func (h *RecyclingHandler) Token(c echo.Context) error {
	hash := strings.TrimSpace(c.Param("hash"))
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Recycling.Token(ctx, hash)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
