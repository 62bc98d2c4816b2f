package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/blogstack/auth-service/internal/api/middleware"
	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

func TestUserHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		meFn: func(ctx context.Context, p domain.Principal) (*domain.UserIdentity, error) {
			if p.ID != "id-1" {
				t.Fatalf("unexpected principal: %+v", p)
			}
			return &domain.UserIdentity{ID: "id-1", Username: "alice", Role: domain.RoleUser}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/auth/me", "")
	middleware.SetPrincipal(c, domain.Principal{ID: "id-1", Role: domain.RoleUser})

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestUserHandler_Me_WithoutPrincipal(t *testing.T) {
	handler := NewUserHandler(&stubAuthService{
		meFn: func(ctx context.Context, p domain.Principal) (*domain.UserIdentity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	c, _ := newJSONContext(http.MethodGet, "/api/auth/me", "")
	if err := handler.Me(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUserHandler_List(t *testing.T) {
	stub := &stubAuthService{
		listFn: func(ctx context.Context, p domain.Principal, f ports.ListFilter) ([]*domain.UserIdentity, error) {
			if f.Role != domain.RoleAdmin {
				t.Fatalf("expected role filter admin, got %q", f.Role)
			}
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/auth/users?role=admin", "")
	middleware.SetPrincipal(c, domain.Principal{ID: "id-1", Role: domain.RoleAdmin})

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Success bool             `json:"success"`
		Users   []map[string]any `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Users == nil || len(resp.Users) != 0 {
		t.Fatalf("expected success with empty users array, got %s", rec.Body.String())
	}
}

func TestUserHandler_Update(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind domain.Kind
		called   bool
	}{
		{name: "valid", body: `{"username":"newname","profilePicture":"https://cdn.example.com/p.png"}`, called: true},
		{name: "short username", body: `{"username":"ab"}`, wantKind: domain.KindValidation},
		{name: "bad url", body: `{"profilePicture":"not a url"}`, wantKind: domain.KindValidation},
		{name: "malformed body", body: `{`, wantKind: domain.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			stub := &stubAuthService{
				updateFn: func(ctx context.Context, p domain.Principal, id string, u ports.ProfileUpdate) (*domain.UserIdentity, error) {
					called = true
					if id != "id-1" || u.Username != "newname" {
						t.Fatalf("unexpected update: %s %+v", id, u)
					}
					return &domain.UserIdentity{ID: id, Username: u.Username}, nil
				},
			}
			handler := NewUserHandler(stub)

			c, rec := newJSONContext(http.MethodPatch, "/api/auth/users/id-1", tt.body)
			c.SetParamNames("id")
			c.SetParamValues("id-1")
			middleware.SetPrincipal(c, domain.Principal{ID: "id-1", Role: domain.RoleUser})

			err := handler.Update(c)
			if called != tt.called {
				t.Fatalf("service called = %v, want %v", called, tt.called)
			}
			if !tt.called {
				if domain.KindOf(err) != tt.wantKind {
					t.Fatalf("expected kind %v, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestUserHandler_Get_PropagatesForbidden(t *testing.T) {
	stub := &stubAuthService{
		getFn: func(ctx context.Context, p domain.Principal, id string) (*domain.UserIdentity, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewUserHandler(stub)

	c, _ := newJSONContext(http.MethodGet, "/api/auth/users/id-2", "")
	c.SetParamNames("id")
	c.SetParamValues("id-2")
	middleware.SetPrincipal(c, domain.Principal{ID: "id-1", Role: domain.RoleUser})

	if err := handler.Get(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
