package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blogstack/auth-service/internal/api/metrics"
	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

const principalKey = "principal"

// Auth resolves the session token into a principal and injects it into the
// context. The access_token cookie wins over an Authorization bearer header.
func Auth(guard ports.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return domain.Unauthenticated("Unauthorized", nil)
			}

			principal, err := guard.Authenticate(token)
			if err != nil {
				reason := "invalid"
				if ports.VerificationKindOf(err) == ports.TokenExpired {
					reason = "expired"
				}
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				return err
			}

			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(domain.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SetPrincipal stores the authenticated principal on the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal injected by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	if !ok || p.ID == "" {
		return domain.Principal{}, false
	}
	return p, true
}
