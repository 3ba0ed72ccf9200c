package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/middleware"
	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/service"
)

// ReadingHandler exposes the meter reading pipeline: meter binding
// (operators), self-reported readings with anomaly gating, and the
// reading history.
type ReadingHandler struct {
	Gate *service.Gate
}

func NewReadingHandler(gate *service.Gate) *ReadingHandler {
	return &ReadingHandler{Gate: gate}
}

type bindMeterReq struct {
	MeterNo  string `json:"meter_no"`
	Identity string `json:"identity"`
}

type submitReadingReq struct {
	MeterNo   string `json:"meter_no"`
	Value     uint64 `json:"value"`
	Confirmed bool   `json:"confirmed"`
}

// BindMeter assigns a meter to a citizen account. The caller must
// hold the operator capability; the service enforces it.
func (h *ReadingHandler) BindMeter(c echo.Context) error {
	var req bindMeterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MeterNo = strings.TrimSpace(req.MeterNo)
	req.Identity = strings.TrimSpace(req.Identity)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Gate.BindMeter(ctx, middleware.Identity(c), req.MeterNo, req.Identity); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"meter_no": req.MeterNo, "identity": req.Identity})
}

// Submit records a self-reported meter reading for the caller's own
// meter. When the consumption drop gate fires, the response carries
// requires_confirmation=true and the client must resubmit the same
// value with confirmed=true to proceed.
func (h *ReadingHandler) Submit(c echo.Context) error {
	var req submitReadingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Gate.SubmitReading(ctx, middleware.Identity(c), strings.TrimSpace(req.MeterNo), req.Value, req.Confirmed)
	if err != nil {
		return fail(c, err)
	}
	status := http.StatusCreated
	if res.RequiresConfirmation {
		// Nothing was recorded yet; the client has to confirm.
		status = http.StatusAccepted
	}
	return c.JSON(status, res)
}

// History lists the caller's recorded readings, newest first. The
// optional ?limit query parameter caps the page size.
func (h *ReadingHandler) History(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	readings, err := h.Gate.History(ctx, middleware.Identity(c), limit)
	if err != nil {
		return fail(c, err)
	}
	if readings == nil {
		readings = []model.Reading{}
	}
	return c.JSON(http.StatusOK, readings)
}
