package ports

import (
	"context"

	"github.com/blogstack/auth-service/internal/core/domain"
)

// FederatedProfile is what an identity provider asserts about a user.
type FederatedProfile struct {
	Email       string
	DisplayName string
	FederatedID string
	PhotoURL    string
}

// FederatedOutcome records what a federated sign-in did to the store.
type FederatedOutcome string

const (
	OutcomeExisting FederatedOutcome = "existing"
	OutcomeLinked   FederatedOutcome = "linked"
	OutcomeCreated  FederatedOutcome = "created"
)

// AuthResult is returned by successful sign-ins.
type AuthResult struct {
	User    *domain.UserIdentity
	Cookie  domain.SessionCookie
	Outcome FederatedOutcome
}

// ProfileUpdate carries the profile fields a user may change. Empty fields are ignored.
type ProfileUpdate struct {
	Username          string
	ProfilePictureURL string
}

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.UserIdentity, error)
	Signin(ctx context.Context, email, password string) (*AuthResult, error)
	FederatedSignin(ctx context.Context, profile FederatedProfile) (*AuthResult, error)
	Signout() domain.SessionCookie
	Me(ctx context.Context, principal domain.Principal) (*domain.UserIdentity, error)
	ListUsers(ctx context.Context, principal domain.Principal, filter ListFilter) ([]*domain.UserIdentity, error)
	GetUser(ctx context.Context, principal domain.Principal, id string) (*domain.UserIdentity, error)
	UpdateProfile(ctx context.Context, principal domain.Principal, id string, update ProfileUpdate) (*domain.UserIdentity, error)
}

// Guard resolves session tokens and enforces role gates.
type Guard interface {
	Authenticate(rawToken string) (domain.Principal, error)
	RequireSelfOrRole(principal domain.Principal, targetID string, allowedRole domain.Role) error
}
