package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/logging"
	authmw "techstore-backend/internal/middleware/auth"
	"techstore-backend/internal/service/order"
)

type OrderHandler struct {
	Svc *order.Service
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var in order.CreateInput
	if err := c.Bind(&in); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}
	if actor := authmw.ActorFrom(c); actor.ID != 0 {
		userID := actor.ID
		in.UserID = &userID
	}

	o, err := h.Svc.Create(ctx, in)
	if err != nil {
		l.Warn("order_create_failed", "error", err)
		return errorResponse(c, err)
	}

	l.Info("order_created", "orderID", o.ID, "total", o.TotalPrice)
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	actor := authmw.ActorFrom(c)
	orders, err := h.Svc.ListForUser(c.Request().Context(), actor.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	orders, err := h.Svc.ListAll(c.Request().Context(), authmw.ActorFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "id", "must be an integer"))
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}

	o, err := h.Svc.UpdateStatus(ctx, authmw.ActorFrom(c), uint(id), req.Status)
	if err != nil {
		l.Warn("order_status_update_failed", "orderID", id, "error", err)
		return errorResponse(c, err)
	}

	l.Info("order_status_updated", "orderID", o.ID, "status", o.Status)
	return c.JSON(http.StatusOK, o)
}
