package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

const (
	maxUsernameAttempts = 3
	usernameSuffixLen   = 4
)

var validate = validator.New()

// Options tunes session issuance.
type Options struct {
	// TokenTTL defaults to domain.SessionTTL.
	TokenTTL time.Duration
	// SecureCookies marks session cookies Secure. Enable in production.
	SecureCookies bool
}

// AuthService implements signup, local and federated sign-in, sign-out and
// the identity reads behind them.
type AuthService struct {
	store  ports.IdentityStore
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	guard  *Guard
	opts   Options
	log    zerolog.Logger

	suffix func() string
}

func NewAuthService(store ports.IdentityStore, hasher ports.PasswordHasher, tokens ports.TokenIssuer, opts Options, log zerolog.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = domain.SessionTTL
	}
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		guard:  NewGuard(tokens),
		opts:   opts,
		log:    log,
		suffix: randomDigits,
	}
}

// Signup creates a local identity. Uniqueness of username and email is left
// to the store's insert.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.UserIdentity, error) {
	username = strings.TrimSpace(username)
	email = domain.NormalizeEmail(email)
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.ErrFieldsRequired
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.Internal("signup", err)
	}

	created, err := s.store.Insert(ctx, &domain.UserIdentity{
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		ProfilePictureURL: domain.DefaultProfilePicture,
		Role:              domain.RoleForEmail(email),
		AuthProvider:      domain.ProviderLocal,
	})
	if err != nil {
		return nil, domain.Internal("signup", err)
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("email", created.Email).
		Str("role", string(created.Role)).
		Msg("user signed up")

	return created, nil
}

// Signin checks a local password and issues a session.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.ErrFieldsRequired
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal("signin", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		ev := s.log.Debug().Str("user_id", user.ID)
		if user.IsFederated() {
			ev = ev.Str("auth_provider", string(user.AuthProvider))
		}
		ev.Msg("password verification failed")
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user, "")
}

// FederatedSignin signs in the identity an external provider vouched for,
// linking it to an existing account with the same email or creating one.
func (s *AuthService) FederatedSignin(ctx context.Context, profile ports.FederatedProfile) (*ports.AuthResult, error) {
	profile.Email = domain.NormalizeEmail(profile.Email)
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	profile.FederatedID = strings.TrimSpace(profile.FederatedID)
	profile.PhotoURL = strings.TrimSpace(profile.PhotoURL)
	if profile.Email == "" || profile.DisplayName == "" || profile.FederatedID == "" {
		return nil, domain.Validation("Google login failed. Missing required fields.")
	}

	user, outcome, err := s.resolveFederated(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("outcome", string(outcome)).
		Msg("federated sign-in")

	return s.issue(user, outcome)
}

// Signout returns the cookie instruction that ends the session.
func (s *AuthService) Signout() domain.SessionCookie {
	return domain.SessionCookie{
		Name:     domain.SessionCookieName,
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: domain.SameSiteStrict,
	}
}

// Me loads the principal's own identity.
func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (*domain.UserIdentity, error) {
	if principal.ID == "" {
		return nil, domain.ErrInvalidUserID
	}
	user, err := s.store.FindByID(ctx, principal.ID)
	if err != nil {
		return nil, domain.Internal("load current user", err)
	}
	return user, nil
}

// ListUsers returns every identity, optionally filtered by role. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, principal domain.Principal, filter ports.ListFilter) ([]*domain.UserIdentity, error) {
	if err := s.guard.RequireSelfOrRole(principal, "", domain.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.Validation("role must be one of: user admin")
	}
	users, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, domain.Internal("list users", err)
	}
	return users, nil
}

// GetUser loads an identity by id for itself or an admin.
func (s *AuthService) GetUser(ctx context.Context, principal domain.Principal, id string) (*domain.UserIdentity, error) {
	if err := s.guard.RequireSelfOrRole(principal, id, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("get user", err)
	}
	return user, nil
}

// UpdateProfile changes username and picture for itself or an admin. Role,
// email and provider are not editable here.
func (s *AuthService) UpdateProfile(ctx context.Context, principal domain.Principal, id string, update ports.ProfileUpdate) (*domain.UserIdentity, error) {
	if err := s.guard.RequireSelfOrRole(principal, id, domain.RoleAdmin); err != nil {
		return nil, err
	}

	var patch domain.IdentityPatch
	if username := strings.TrimSpace(update.Username); username != "" {
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		patch.Username = &username
	}
	if picture := strings.TrimSpace(update.ProfilePictureURL); picture != "" {
		if err := validate.Var(picture, "url"); err != nil {
			return nil, domain.Validation("profilePicture must be a valid URL")
		}
		patch.ProfilePictureURL = &picture
	}
	if patch.Empty() {
		return nil, domain.Validation("Nothing to update")
	}

	user, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, domain.Internal("update profile", err)
	}
	return user, nil
}

func (s *AuthService) resolveFederated(ctx context.Context, profile ports.FederatedProfile) (*domain.UserIdentity, ports.FederatedOutcome, error) {
	user, err := s.store.FindByEmail(ctx, profile.Email)
	if err == nil {
		return s.link(ctx, user, profile.FederatedID)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.Internal("find identity by email", err)
	}

	// Provider email changed since the account was linked.
	user, err = s.store.FindByFederatedID(ctx, profile.FederatedID)
	if err == nil {
		return user, ports.OutcomeExisting, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.Internal("find identity by federated id", err)
	}

	return s.createFederated(ctx, profile)
}

func (s *AuthService) link(ctx context.Context, user *domain.UserIdentity, federatedID string) (*domain.UserIdentity, ports.FederatedOutcome, error) {
	if user.FederatedID != "" {
		return user, ports.OutcomeExisting, nil
	}

	provider := domain.ProviderFederated
	linked, err := s.store.Update(ctx, user.ID, domain.IdentityPatch{
		FederatedID:  &federatedID,
		AuthProvider: &provider,
	})
	if err != nil {
		return nil, "", domain.Internal("link federated identity", err)
	}
	return linked, ports.OutcomeLinked, nil
}

func (s *AuthService) createFederated(ctx context.Context, profile ports.FederatedProfile) (*domain.UserIdentity, ports.FederatedOutcome, error) {
	// Never used to sign in; the store requires a hash on every identity.
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, "", domain.Internal("hash generated password", err)
	}

	picture := profile.PhotoURL
	if picture == "" {
		picture = domain.DefaultProfilePicture
	}

	for attempt := 1; attempt <= maxUsernameAttempts; attempt++ {
		username := DeriveUsername(profile.DisplayName, s.suffix())

		_, err := s.store.FindByUsername(ctx, username)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.Internal("find identity by username", err)
		}

		created, err := s.store.Insert(ctx, &domain.UserIdentity{
			Username:          username,
			Email:             profile.Email,
			PasswordHash:      hash,
			ProfilePictureURL: picture,
			Role:              domain.RoleUser,
			FederatedID:       profile.FederatedID,
			AuthProvider:      domain.ProviderFederated,
		})
		switch {
		case err == nil:
			return created, ports.OutcomeCreated, nil
		case errors.Is(err, domain.ErrUsernameTaken):
			s.log.Debug().Str("username", username).Int("attempt", attempt).Msg("generated username taken")
		case errors.Is(err, domain.ErrEmailTaken):
			// A concurrent first login created the account.
			existing, ferr := s.store.FindByEmail(ctx, profile.Email)
			if ferr != nil {
				return nil, "", domain.Internal("reload identity by email", ferr)
			}
			return s.link(ctx, existing, profile.FederatedID)
		default:
			return nil, "", domain.Internal("create federated identity", err)
		}
	}

	return nil, "", domain.ErrUsernameTaken
}

func (s *AuthService) issue(user *domain.UserIdentity, outcome ports.FederatedOutcome) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(ports.TokenClaims{ID: user.ID, Role: user.Role}, s.opts.TokenTTL)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &ports.AuthResult{
		User:    user,
		Outcome: outcome,
		Cookie: domain.SessionCookie{
			Name:     domain.SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(s.opts.TokenTTL / time.Second),
			HTTPOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: domain.SameSiteLax,
		},
	}, nil
}

// DeriveUsername builds a username from a provider display name: lowercased,
// whitespace and punctuation dropped, truncated so that base plus suffix fits
// the username length limit.
func DeriveUsername(displayName, suffix string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}

	base := []rune(b.String())
	if limit := domain.UsernameMaxLen - len([]rune(suffix)); len(base) > limit {
		base = base[:limit]
	}
	return string(base) + suffix
}

func randomDigits() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return fmt.Sprintf("%0*d", usernameSuffixLen, time.Now().UnixNano()%10000)
	}
	return fmt.Sprintf("%0*d", usernameSuffixLen, n.Int64())
}

func validateUsername(username string) error {
	if n := len([]rune(username)); n < domain.UsernameMinLen || n > domain.UsernameMaxLen {
		return domain.Validation("Username must be between %d and %d characters long", domain.UsernameMinLen, domain.UsernameMaxLen)
	}
	return nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "email"); err != nil {
		return domain.Validation("Please enter a valid email")
	}
	return nil
}
