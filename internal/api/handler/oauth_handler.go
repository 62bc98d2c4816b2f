package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blogstack/auth-service/internal/api/metrics"
	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

// OAuthHandler serves the Google authorization code redirect flow.
type OAuthHandler struct {
	provider    ports.FederatedProvider
	states      ports.OAuthStateStore
	authService ports.AuthService
	frontendURL string
	log         zerolog.Logger
}

func NewOAuthHandler(provider ports.FederatedProvider, states ports.OAuthStateStore, authService ports.AuthService, frontendURL string, log zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		states:      states,
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// Start redirects the browser to the Google consent screen.
//
// @Summary      Start Google sign in
// @Tags         auth
// @Success      302
// @Failure      500  {object}  ErrorResponse
// @Router       /api/auth/google [get]
func (h *OAuthHandler) Start(c echo.Context) error {
	state := uuid.NewString()
	verifier := h.provider.NewVerifier()

	if err := h.states.Save(c.Request().Context(), state, verifier); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state, verifier))
}

// Callback completes the flow, sets the session cookie and sends the browser
// to the dashboard. Provider failures send it back to the signin page.
//
// @Summary      Google sign in callback
// @Tags         auth
// @Param        state  query  string  true  "Opaque state issued by Start"
// @Param        code   query  string  true  "Authorization code"
// @Success      302
// @Failure      400  {object}  ErrorResponse
// @Router       /api/auth/google/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	verifier, err := h.states.Consume(ctx, c.QueryParam("state"))
	if err != nil {
		return err
	}

	if reason := c.QueryParam("error"); reason != "" {
		h.log.Warn().Str("reason", reason).Msg("google consent denied")
		return c.Redirect(http.StatusFound, h.signinURL("access_denied"))
	}

	code := c.QueryParam("code")
	if code == "" {
		return domain.Validation("missing authorization code")
	}

	profile, err := h.provider.Exchange(ctx, code, verifier)
	if err != nil {
		h.log.Error().Err(err).Msg("google code exchange failed")
		return c.Redirect(http.StatusFound, h.signinURL("oauth_failed"))
	}

	res, err := h.authService.FederatedSignin(ctx, profile)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			return err
		}
		h.log.Warn().Err(err).Str("email", profile.Email).Msg("google sign in rejected")
		return c.Redirect(http.StatusFound, h.signinURL(domain.KindOf(err).String()))
	}
	metrics.FederatedSigninsTotal.WithLabelValues(string(res.Outcome)).Inc()

	c.SetCookie(toHTTPCookie(res.Cookie))
	return c.Redirect(http.StatusFound, h.frontendURL+"/dashboard")
}

func (h *OAuthHandler) signinURL(reason string) string {
	return h.frontendURL + "/signin?error=" + url.QueryEscape(reason)
}
