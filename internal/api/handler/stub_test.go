package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

type stubAuthService struct {
	signupFn    func(ctx context.Context, username, email, password string) (*domain.UserIdentity, error)
	signinFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	federatedFn func(ctx context.Context, profile ports.FederatedProfile) (*ports.AuthResult, error)
	meFn        func(ctx context.Context, p domain.Principal) (*domain.UserIdentity, error)
	listFn      func(ctx context.Context, p domain.Principal, f ports.ListFilter) ([]*domain.UserIdentity, error)
	getFn       func(ctx context.Context, p domain.Principal, id string) (*domain.UserIdentity, error)
	updateFn    func(ctx context.Context, p domain.Principal, id string, u ports.ProfileUpdate) (*domain.UserIdentity, error)
}

func (s *stubAuthService) Signup(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
	return s.signupFn(ctx, username, email, password)
}

func (s *stubAuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.signinFn(ctx, email, password)
}

func (s *stubAuthService) FederatedSignin(ctx context.Context, profile ports.FederatedProfile) (*ports.AuthResult, error) {
	return s.federatedFn(ctx, profile)
}

func (s *stubAuthService) Signout() domain.SessionCookie {
	return domain.SessionCookie{Name: domain.SessionCookieName, Path: "/", MaxAge: -1, HTTPOnly: true, SameSite: domain.SameSiteStrict}
}

func (s *stubAuthService) Me(ctx context.Context, p domain.Principal) (*domain.UserIdentity, error) {
	return s.meFn(ctx, p)
}

func (s *stubAuthService) ListUsers(ctx context.Context, p domain.Principal, f ports.ListFilter) ([]*domain.UserIdentity, error) {
	return s.listFn(ctx, p, f)
}

func (s *stubAuthService) GetUser(ctx context.Context, p domain.Principal, id string) (*domain.UserIdentity, error) {
	return s.getFn(ctx, p, id)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, p domain.Principal, id string, u ports.ProfileUpdate) (*domain.UserIdentity, error) {
	return s.updateFn(ctx, p, id, u)
}

func sessionCookie(token string) domain.SessionCookie {
	return domain.SessionCookie{
		Name:     domain.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(domain.SessionTTL.Seconds()),
		HTTPOnly: true,
		SameSite: domain.SameSiteLax,
	}
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
