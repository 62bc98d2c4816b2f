package domain

import (
	"strings"
	"time"
)

// Role is the authorization level carried in session tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AuthProvider tags how an identity authenticates. Code paths branch on it
// explicitly instead of using separate account types.
type AuthProvider string

const (
	ProviderLocal     AuthProvider = "local"
	ProviderFederated AuthProvider = "federated"
)

// ParseAuthProvider normalizes a stored provider value. Records written by
// older deployments tag Google accounts as "google".
func ParseAuthProvider(s string) AuthProvider {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ProviderFederated), "google":
		return ProviderFederated
	default:
		return ProviderLocal
	}
}

// DefaultProfilePicture is used when an identity has no picture of its own.
const DefaultProfilePicture = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_960_720.png"

const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
)

// UserIdentity is a local or federated account.
type UserIdentity struct {
	ID                string       `json:"_id"`
	Username          string       `json:"username"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"`
	ProfilePictureURL string       `json:"profilePicture"`
	Role              Role         `json:"role"`
	FederatedID       string       `json:"googleId,omitempty"`
	AuthProvider      AuthProvider `json:"authProvider"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// IsFederated reports whether the identity is linked to an external provider.
func (u *UserIdentity) IsFederated() bool {
	return u.AuthProvider == ProviderFederated
}

// IdentityPatch is a partial update. Nil fields are left unchanged.
type IdentityPatch struct {
	Username          *string
	ProfilePictureURL *string
	FederatedID       *string
	AuthProvider      *AuthProvider
}

// Empty reports whether the patch changes nothing.
func (p IdentityPatch) Empty() bool {
	return p.Username == nil && p.ProfilePictureURL == nil && p.FederatedID == nil && p.AuthProvider == nil
}

// Principal is the identity resolved from a session token. It is trusted for
// the token's lifetime; role changes apply on the next sign-in.
type Principal struct {
	ID   string
	Role Role
}

// NormalizeEmail lowercases and trims an email address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleForEmail is the signup bootstrap policy: any address containing "admin"
// is granted the admin role.
//
// This lets anyone self-grant admin by choosing their email address. Replace
// this function to move to invitation or approval based admin assignment.
func RoleForEmail(email string) Role {
	if strings.Contains(email, "admin") {
		return RoleAdmin
	}
	return RoleUser
}
