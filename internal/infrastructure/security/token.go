package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

var ErrEmptySecret = errors.New("token signing secret is empty")

type sessionClaims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens with a secret injected at construction.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// Option configures a JWTIssuer.
type Option func(*JWTIssuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *JWTIssuer) { i.now = now }
}

func NewTokenIssuer(secret string, opts ...Option) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	i := &JWTIssuer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *JWTIssuer) Issue(claims ports.TokenClaims, ttl time.Duration) (string, error) {
	if claims.ID == "" {
		return "", errors.New("issue token: empty subject id")
	}
	now := i.now().UTC()
	sc := sessionClaims{
		ID:   claims.ID,
		Role: string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sc)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *JWTIssuer) Verify(token string) (ports.TokenClaims, error) {
	var sc sessionClaims
	_, err := jwt.ParseWithClaims(token, &sc, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return ports.TokenClaims{}, classify(err)
	}
	if sc.ID == "" {
		return ports.TokenClaims{}, &ports.VerificationError{Kind: ports.TokenMalformed, Err: errors.New("missing id claim")}
	}

	out := ports.TokenClaims{ID: sc.ID, Role: domain.Role(sc.Role)}
	if sc.IssuedAt != nil {
		out.IssuedAt = sc.IssuedAt.Time
	}
	if sc.ExpiresAt != nil {
		out.ExpiresAt = sc.ExpiresAt.Time
	}
	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &ports.VerificationError{Kind: ports.TokenExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &ports.VerificationError{Kind: ports.TokenSignatureInvalid, Err: err}
	default:
		return &ports.VerificationError{Kind: ports.TokenMalformed, Err: err}
	}
}
