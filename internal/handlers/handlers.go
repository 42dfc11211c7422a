package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/apperr"
)

// errorResponse maps service errors onto the uniform JSON error body.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "server error"

	for _, m := range []struct {
		sentinel error
		status   int
	}{
		{apperr.ErrValidation, http.StatusBadRequest},
		{apperr.ErrMediaMissing, http.StatusBadRequest},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrAuth, http.StatusUnauthorized},
		{apperr.ErrForbidden, http.StatusForbidden},
		{apperr.ErrConflict, http.StatusConflict},
	} {
		if errors.Is(err, m.sentinel) {
			status = m.status
			message = m.sentinel.Error()
			break
		}
	}

	body := echo.Map{"message": message}
	if fields := apperr.FieldsOf(err); fields != nil {
		body["fields"] = fields
	}
	return c.JSON(status, body)
}
