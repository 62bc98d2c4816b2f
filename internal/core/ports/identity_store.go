package ports

import (
	"context"

	"github.com/blogstack/auth-service/internal/core/domain"
)

// ListFilter narrows List results. An empty Role returns every identity.
type ListFilter struct {
	Role domain.Role
}

// IdentityStore persists user identities keyed by their unique fields.
//
// Lookups return domain.ErrUserNotFound when nothing matches. Insert and
// Update enforce uniqueness atomically and return domain.ErrUsernameTaken,
// domain.ErrEmailTaken or domain.ErrFederatedIDTaken on violation; callers
// never pre-check.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.UserIdentity, error)
	FindByUsername(ctx context.Context, username string) (*domain.UserIdentity, error)
	// FindByID returns domain.ErrInvalidUserID when id is not a well-formed store id.
	FindByID(ctx context.Context, id string) (*domain.UserIdentity, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*domain.UserIdentity, error)
	Insert(ctx context.Context, user *domain.UserIdentity) (*domain.UserIdentity, error)
	Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.UserIdentity, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.UserIdentity, error)
}
