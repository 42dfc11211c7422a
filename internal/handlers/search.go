package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/service/catalog"
	"techstore-backend/internal/util"
)

type SearchHandler struct {
	Svc *catalog.Service
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "q", "required"))
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Svc.Search(c.Request().Context(), q, from, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":    total,
		"products": products,
	})
}
