package ports

import "context"

// FederatedProvider drives an authorization code flow with PKCE.
type FederatedProvider interface {
	NewVerifier() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (FederatedProfile, error)
}

// OAuthStateStore keeps the PKCE verifier of each pending redirect.
// Consume succeeds at most once per state.
type OAuthStateStore interface {
	Save(ctx context.Context, state, verifier string) error
	Consume(ctx context.Context, state string) (string, error)
}
