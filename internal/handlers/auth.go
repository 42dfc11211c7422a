package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/apperr"
	authmw "techstore-backend/internal/middleware/auth"
	"techstore-backend/internal/service/auth"
)

type AuthHandler struct {
	Svc *auth.Service
}

func (h *AuthHandler) Register(c echo.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}

	user, err := h.Svc.Register(c.Request().Context(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}

	user, err := h.Svc.RegisterAdmin(c.Request().Context(), authmw.ActorFrom(c), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":          res.User,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"is_admin":      res.IsAdmin,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}

	access, refresh, err := h.Svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) ToggleRole(c echo.Context) error {
	var req struct {
		UserID uint   `json:"userId"`
		Role   string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "body", "invalid json"))
	}
	if req.UserID == 0 {
		return errorResponse(c, apperr.Field(apperr.ErrValidation, "userId", "required"))
	}

	user, err := h.Svc.ToggleRole(c.Request().Context(), authmw.ActorFrom(c), req.UserID, req.Role)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
