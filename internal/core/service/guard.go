package service

import (
	"strings"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

// Guard resolves session tokens into principals and enforces role gates.
// It never reads the store: token claims are trusted until expiry.
type Guard struct {
	tokens ports.TokenIssuer
}

func NewGuard(tokens ports.TokenIssuer) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate verifies rawToken and returns the principal it was issued for.
func (g *Guard) Authenticate(rawToken string) (domain.Principal, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Principal{}, domain.Unauthenticated("Unauthorized", nil)
	}

	claims, err := g.tokens.Verify(rawToken)
	if err != nil {
		if ports.VerificationKindOf(err) == ports.TokenExpired {
			return domain.Principal{}, domain.Unauthenticated("Session expired", err)
		}
		return domain.Principal{}, domain.Unauthenticated("Invalid token", err)
	}
	if !claims.Role.Valid() {
		return domain.Principal{}, domain.Unauthenticated("Invalid token", nil)
	}

	return domain.Principal{ID: claims.ID, Role: claims.Role}, nil
}

// RequireSelfOrRole passes when the principal is the target identity or holds
// allowedRole. An empty targetID or allowedRole disables that branch.
func (g *Guard) RequireSelfOrRole(principal domain.Principal, targetID string, allowedRole domain.Role) error {
	if targetID != "" && principal.ID == targetID {
		return nil
	}
	if allowedRole != "" && principal.Role == allowedRole {
		return nil
	}
	return domain.ErrForbidden
}
