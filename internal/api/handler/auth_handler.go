package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blogstack/auth-service/internal/api/metrics"
	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	GooglePhotoURL string `json:"googlePhotoUrl"`
	GoogleID       string `json:"googleId"`
}

type signupUser struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

type signupResponse struct {
	Message string     `json:"message"`
	User    signupUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the envelope rendered for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Signup creates a local account.
//
// @Summary      Create a local account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(resultLabel(err)).Inc()
		return err
	}
	metrics.SignupsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return c.JSON(http.StatusCreated, signupResponse{
		Message: "Signup successful",
		User:    signupUser{Username: user.Username, Email: user.Email, Role: user.Role},
	})
}

// Signin authenticates with email and password and sets the session cookie.
//
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  domain.UserIdentity
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := bind(c, &req); err != nil {
		metrics.SigninsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return err
	}

	res, err := h.authService.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.SigninsTotal.WithLabelValues(resultLabel(err)).Inc()
		return err
	}
	metrics.SigninsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	c.SetCookie(toHTTPCookie(res.Cookie))
	return c.JSON(http.StatusOK, res.User)
}

// Google signs in with a profile asserted by the Google client SDK, linking or
// creating the account as needed.
//
// @Summary      Sign in with a Google profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleRequest  true  "Google profile"
// @Success      200   {object}  domain.UserIdentity
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/google [post]
func (h *AuthHandler) Google(c echo.Context) error {
	var req googleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.authService.FederatedSignin(c.Request().Context(), ports.FederatedProfile{
		Email:       req.Email,
		DisplayName: req.Name,
		FederatedID: req.GoogleID,
		PhotoURL:    req.GooglePhotoURL,
	})
	if err != nil {
		return err
	}
	metrics.FederatedSigninsTotal.WithLabelValues(string(res.Outcome)).Inc()

	c.SetCookie(toHTTPCookie(res.Cookie))
	return c.JSON(http.StatusOK, res.User)
}

// Signout clears the session cookie.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/signout [post]
func (h *AuthHandler) Signout(c echo.Context) error {
	c.SetCookie(toHTTPCookie(h.authService.Signout()))
	return c.JSON(http.StatusOK, messageResponse{Message: "Logout successful"})
}

func resultLabel(err error) string {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindConflict:
		return metrics.ResultInvalid
	case domain.KindNotFound, domain.KindInvalidCredentials:
		return metrics.ResultDenied
	default:
		return metrics.ResultError
	}
}
