package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

// RequireRole lets the request through only when the principal holds role.
// It must run after Auth.
func RequireRole(guard ports.Guard, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return domain.Unauthenticated("Unauthorized", nil)
			}
			if err := guard.RequireSelfOrRole(principal, "", role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
