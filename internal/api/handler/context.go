package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blogstack/auth-service/internal/api/middleware"
	"github.com/blogstack/auth-service/internal/core/domain"
)

// ctxPrincipal returns the principal injected by the Auth middleware. A
// missing principal means the route was mounted without it.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.Unauthenticated("Unauthorized", nil)
	}
	return p, nil
}

// bind decodes the request body, reporting decode failures as validation errors.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return domain.Validation("invalid payload")
	}
	return nil
}

func toHTTPCookie(sc domain.SessionCookie) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Path:     sc.Path,
		MaxAge:   sc.MaxAge,
		HttpOnly: sc.HTTPOnly,
		Secure:   sc.Secure,
	}
	if sc.Cleared() {
		cookie.Expires = time.Unix(0, 0)
	}
	switch sc.SameSite {
	case domain.SameSiteLax:
		cookie.SameSite = http.SameSiteLaxMode
	case domain.SameSiteStrict:
		cookie.SameSite = http.SameSiteStrictMode
	default:
		cookie.SameSite = http.SameSiteDefaultMode
	}
	return cookie
}
