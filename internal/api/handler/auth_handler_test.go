package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

func TestAuthHandler_Signup_Success(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
			if username != "alice" || email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", username, email, password)
			}
			return &domain.UserIdentity{ID: "id-1", Username: username, Email: email, Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/signup", `{"username":"alice","email":"alice@example.com","password":"secret"}`)
	if err := handler.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "Signup successful" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["email"] != "alice@example.com" || user["role"] != "user" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if len(user) != 3 {
		t.Fatalf("signup response should only carry username, email and role: %+v", user)
	}
	if findCookie(rec, domain.SessionCookieName) != nil {
		t.Fatalf("signup must not set a session cookie")
	}
}

func TestAuthHandler_Signup_Conflict(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, _ := newJSONContext(http.MethodPost, "/api/auth/signup", `{"username":"bob","email":"b@example.com","password":"x"}`)
	if err := handler.Signup(c); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthHandler_Signup_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, _ := newJSONContext(http.MethodPost, "/api/auth/signup", "not-json")
	if err := handler.Signup(c); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Signin_SetsCookie(t *testing.T) {
	stub := &stubAuthService{
		signinFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.AuthResult{
				User:   &domain.UserIdentity{ID: "id-1", Username: "alice", Email: email, Role: domain.RoleAdmin, PasswordHash: "hash"},
				Cookie: sessionCookie("token123"),
			}, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/signin", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Signin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := findCookie(rec, domain.SessionCookieName)
	if ck == nil {
		t.Fatalf("expected %s cookie", domain.SessionCookieName)
	}
	if ck.Value != "token123" || !ck.HttpOnly || ck.SameSite != http.SameSiteLaxMode || ck.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
	if ck.MaxAge != 7*24*60*60 {
		t.Fatalf("expected 7 day max age, got %d", ck.MaxAge)
	}

	body := rec.Body.String()
	if strings.Contains(strings.ToLower(body), "password") || strings.Contains(body, "hash") {
		t.Fatalf("response leaks credential material: %s", body)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["_id"] != "id-1" || resp["role"] != "admin" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Signin_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unknown email", err: domain.ErrUserNotFound},
		{name: "wrong password", err: domain.ErrInvalidCredentials},
		{name: "blank fields", err: domain.ErrFieldsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				signinFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
					return nil, tt.err
				},
			}
			handler := NewAuthHandler(stub, zerolog.Nop())

			c, rec := newJSONContext(http.MethodPost, "/api/auth/signin", `{"email":"a@b.com","password":"bad"}`)
			if err := handler.Signin(c); !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if findCookie(rec, domain.SessionCookieName) != nil {
				t.Fatalf("failed signin must not set a cookie")
			}
		})
	}
}

func TestAuthHandler_Google_MapsProfile(t *testing.T) {
	stub := &stubAuthService{
		federatedFn: func(ctx context.Context, p ports.FederatedProfile) (*ports.AuthResult, error) {
			want := ports.FederatedProfile{Email: "ann@example.com", DisplayName: "Ann Lee", FederatedID: "g-1", PhotoURL: "https://p/ann.png"}
			if p != want {
				t.Fatalf("unexpected profile: %+v", p)
			}
			return &ports.AuthResult{
				User:    &domain.UserIdentity{ID: "id-9", Username: "annlee1234", Email: p.Email, Role: domain.RoleUser},
				Cookie:  sessionCookie("tok"),
				Outcome: ports.OutcomeCreated,
			}, nil
		},
	}
	handler := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/google",
		`{"email":"ann@example.com","name":"Ann Lee","googlePhotoUrl":"https://p/ann.png","googleId":"g-1"}`)
	if err := handler.Google(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ck := findCookie(rec, domain.SessionCookieName); ck == nil || ck.Value != "tok" {
		t.Fatalf("expected session cookie, got %+v", ck)
	}
}

func TestAuthHandler_Signout_ClearsCookie(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/auth/signout", "")
	if err := handler.Signout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	header := rec.Header().Get(echo.HeaderSetCookie)
	if !strings.Contains(header, domain.SessionCookieName+"=") || !strings.Contains(header, "Max-Age=0") {
		t.Fatalf("expected cleared cookie, got %q", header)
	}
	if !strings.Contains(header, "Expires=Thu, 01 Jan 1970 00:00:00 GMT") {
		t.Fatalf("expected past expiry on clear, got %q", header)
	}
	if !strings.Contains(header, "SameSite=Strict") {
		t.Fatalf("expected SameSite=Strict on clear, got %q", header)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "Logout successful" {
		t.Fatalf("unexpected body: %v", resp)
	}
}
