package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/services"
)

// Context keys set by RequireAuth
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

// RequireAuth returns a middleware that verifies the bearer token and stores
// the caller in the echo context
func RequireAuth(verifier services.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return apperr.NewUnauthorized("missing bearer token")
			}

			actor, err := verifier.Verify(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				return err
			}

			c.Set(UserIDKey, actor.ID)
			c.Set(UserRoleKey, actor.Role)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the admin role. It must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ActorFrom(c).IsAdmin() {
				return apperr.NewForbidden("admin access required")
			}
			return next(c)
		}
	}
}

// ActorFrom returns the caller stored by RequireAuth
func ActorFrom(c echo.Context) services.Actor {
	id, _ := c.Get(UserIDKey).(string)
	role, _ := c.Get(UserRoleKey).(models.UserRole)
	return services.Actor{ID: id, Role: role}
}
