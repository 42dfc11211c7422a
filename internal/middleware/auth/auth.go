package authmw

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"techstore-backend/internal/models"
	"techstore-backend/internal/service/auth"
)

const actorKey = "actor"

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func setActor(c echo.Context, claims *auth.AccessClaims) error {
	id, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	c.Set(actorKey, models.Actor{ID: id, Role: claims.Role})
	return nil
}

// Authenticate requires a valid bearer access token and puts the actor into
// the request context.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := auth.ParseAccessToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if err := setActor(c, claims); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Optional picks up the actor when a valid token is present and lets the
// request through anonymously otherwise. Order creation is open to guests.
func Optional(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := bearerToken(c); token != "" {
				if claims, err := auth.ParseAccessToken(token, secret); err == nil {
					if err := setActor(c, claims); err != nil {
						return err
					}
				}
			}
			return next(c)
		}
	}
}

// AdminOnly gates a route on the actor's role. Services re-check the
// capability themselves; this keeps unauthorized requests out early.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !ActorFrom(c).IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func ActorFrom(c echo.Context) models.Actor {
	if a, ok := c.Get(actorKey).(models.Actor); ok {
		return a
	}
	return models.Actor{}
}
