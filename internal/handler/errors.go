package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/service"
)

// fail maps a service error onto an HTTP response. The service layer
// wraps every failure in one of four category sentinels, so the
// mapping stays a four-way switch no matter how many specific errors
// the services grow.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
