package ports

import (
	"errors"
	"fmt"
	"time"

	"github.com/blogstack/auth-service/internal/core/domain"
)

// PasswordHasher hashes and checks passwords. The salt is embedded in the hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A malformed hash is a mismatch.
	Verify(password, hash string) bool
}

// TokenClaims is the payload bound into a session token.
type TokenClaims struct {
	ID        string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(claims TokenClaims, ttl time.Duration) (string, error)
	Verify(token string) (TokenClaims, error)
}

// VerificationKind says why a token was rejected.
type VerificationKind string

const (
	TokenMalformed        VerificationKind = "malformed"
	TokenSignatureInvalid VerificationKind = "signature_invalid"
	TokenExpired          VerificationKind = "expired"
)

// VerificationError is returned by TokenIssuer.Verify for any rejected token.
type VerificationError struct {
	Kind VerificationKind
	Err  error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// VerificationKindOf returns the rejection kind of err, or "" when err is not
// a VerificationError.
func VerificationKindOf(err error) VerificationKind {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}
