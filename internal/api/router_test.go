package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
	"github.com/blogstack/auth-service/internal/core/service"
	"github.com/blogstack/auth-service/internal/infrastructure/security"
)

// stubAuthService answers every call with the identity of the caller, or err.
type stubAuthService struct {
	err error
}

func (s *stubAuthService) Signup(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
	return nil, s.err
}

func (s *stubAuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return nil, s.err
}

func (s *stubAuthService) FederatedSignin(ctx context.Context, profile ports.FederatedProfile) (*ports.AuthResult, error) {
	return nil, s.err
}

func (s *stubAuthService) Signout() domain.SessionCookie {
	return domain.SessionCookie{Name: domain.SessionCookieName, Path: "/", MaxAge: -1}
}

func (s *stubAuthService) Me(ctx context.Context, p domain.Principal) (*domain.UserIdentity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.UserIdentity{ID: p.ID, Role: p.Role}, nil
}

func (s *stubAuthService) ListUsers(ctx context.Context, p domain.Principal, f ports.ListFilter) ([]*domain.UserIdentity, error) {
	return []*domain.UserIdentity{{ID: p.ID, Role: p.Role}}, s.err
}

func (s *stubAuthService) GetUser(ctx context.Context, p domain.Principal, id string) (*domain.UserIdentity, error) {
	return nil, s.err
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, p domain.Principal, id string, u ports.ProfileUpdate) (*domain.UserIdentity, error) {
	return nil, s.err
}

type routerFixture struct {
	t      *testing.T
	tokens *security.JWTIssuer
	svc    *stubAuthService
	router http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	tokens, err := security.NewTokenIssuer("router-test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	svc := &stubAuthService{}
	return &routerFixture{
		t:      t,
		tokens: tokens,
		svc:    svc,
		router: NewRouter(RouterConfig{
			AuthService: svc,
			Guard:       service.NewGuard(tokens),
			Logger:      zerolog.Nop(),
			Registry:    prometheus.NewRegistry(),
		}),
	}
}

func (f *routerFixture) token(id string, role domain.Role) string {
	f.t.Helper()
	tok, err := f.tokens.Issue(ports.TokenClaims{ID: id, Role: role}, time.Hour)
	if err != nil {
		f.t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: domain.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestRouter_UsersRequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/auth/users", f.token("id-1", domain.RoleUser), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Status != http.StatusForbidden || env.Message != "forbidden" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	rec = f.do(http.MethodGet, "/api/auth/users", f.token("id-2", domain.RoleAdmin), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_MeRequiresSession(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Message != "Unauthorized" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	rec = f.do(http.MethodGet, "/api/auth/me", f.token("id-1", domain.RoleUser), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user["_id"] != "id-1" {
		t.Fatalf("unexpected identity: %+v", user)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "wrong password", err: domain.ErrInvalidCredentials, status: http.StatusBadRequest, message: "Invalid password"},
		{name: "unknown email", err: domain.ErrUserNotFound, status: http.StatusNotFound, message: "User not found"},
		{name: "blank fields", err: domain.ErrFieldsRequired, status: http.StatusBadRequest, message: "All fields are required"},
		{name: "store failure", err: domain.Internal("find user", errors.New("socket closed")), status: http.StatusInternalServerError, message: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.svc.err = tt.err

			rec := f.do(http.MethodPost, "/api/auth/signin", "", `{"email":"a@b.com","password":"x"}`)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success || env.Status != tt.status || env.Message != tt.message {
				t.Fatalf("unexpected envelope: %+v", env)
			}
			if strings.Contains(rec.Body.String(), "socket") {
				t.Fatalf("internal cause leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestRouter_MalformedUserID(t *testing.T) {
	f := newRouterFixture(t)
	f.svc.err = domain.ErrInvalidUserID

	rec := f.do(http.MethodGet, "/api/auth/me", f.token("not-hex", domain.RoleUser), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_GoogleRedirectDisabledWithoutOAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/auth/google/callback?state=x&code=y", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_Signout(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/signout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), domain.SessionCookieName+"=") {
		t.Fatalf("expected cleared cookie, got %q", rec.Header().Get("Set-Cookie"))
	}
}
