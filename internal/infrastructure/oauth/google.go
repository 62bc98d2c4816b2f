package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/blogstack/auth-service/internal/core/ports"
)

const googleIssuer = "https://accounts.google.com"

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != ""
}

func (c GoogleConfig) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURL == "" {
		return errors.New("google oauth config missing required fields")
	}
	return nil
}

// idTokenVerifier is satisfied by *oidc.IDTokenVerifier.
type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// GoogleProvider runs the authorization code flow with PKCE and turns a
// verified ID token into a federated profile.
type GoogleProvider struct {
	oauth    *oauth2.Config
	verifier idTokenVerifier
}

// NewGoogleProvider discovers Google's OIDC endpoints and keys.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("init google oidc provider: %w", err)
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// NewVerifier returns a fresh PKCE code verifier.
func (p *GoogleProvider) NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL builds the consent URL for state using the S256 challenge of verifier.
func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange redeems code and returns the profile asserted by the ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (ports.FederatedProfile, error) {
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return ports.FederatedProfile{}, fmt.Errorf("google token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return ports.FederatedProfile{}, errors.New("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return ports.FederatedProfile{}, fmt.Errorf("google id_token verification: %w", err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return ports.FederatedProfile{}, fmt.Errorf("google id_token claims: %w", err)
	}
	return profileFromClaims(claims)
}

func profileFromClaims(c googleClaims) (ports.FederatedProfile, error) {
	if c.Subject == "" || c.Email == "" {
		return ports.FederatedProfile{}, errors.New("google id_token missing required claims")
	}
	if !c.EmailVerified {
		return ports.FederatedProfile{}, errors.New("google account email is not verified")
	}
	return ports.FederatedProfile{
		Email:       c.Email,
		DisplayName: c.Name,
		FederatedID: c.Subject,
		PhotoURL:    c.Picture,
	}, nil
}
