package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type usersResponse struct {
	Success bool                   `json:"success"`
	Users   []*domain.UserIdentity `json:"users"`
}

type updateUserRequest struct {
	Username       string `json:"username" validate:"omitempty,min=3,max=20"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

// Me returns the identity of the caller.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.UserIdentity
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/auth/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List returns every identity, optionally filtered by role. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        role  query     string  false  "Filter by role"  Enums(user, admin)
// @Success      200   {object}  usersResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /api/auth/users [get]
func (h *UserHandler) List(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	users, err := h.authService.ListUsers(c.Request().Context(), principal, ports.ListFilter{
		Role: domain.Role(c.QueryParam("role")),
	})
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.UserIdentity{}
	}
	return c.JSON(http.StatusOK, usersResponse{Success: true, Users: users})
}

// Get returns a single identity. Callers may read themselves; admins anyone.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.UserIdentity
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/auth/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.authService.GetUser(c.Request().Context(), principal, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update changes the username or profile picture of an identity.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.UserIdentity
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/auth/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), principal, c.Param("id"), ports.ProfileUpdate{
		Username:          req.Username,
		ProfilePictureURL: req.ProfilePicture,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
