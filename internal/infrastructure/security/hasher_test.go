package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/blogstack/auth-service/internal/core/domain"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if !h.Verify("secret1", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("secret2", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestBcryptHasher_SaltedOutput(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short"} {
		if h.Verify("secret1", hash) {
			t.Fatalf("expected malformed hash %q to fail verification", hash)
		}
	}
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	if got := NewBcryptHasher(0).Cost(); got != DefaultCost {
		t.Fatalf("expected default cost %d, got %d", DefaultCost, got)
	}
	if got := NewBcryptHasher(99).Cost(); got != DefaultCost {
		t.Fatalf("expected default cost %d for out of range value, got %d", DefaultCost, got)
	}

	hash, err := NewBcryptHasher(DefaultCost).Hash("secret1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != DefaultCost {
		t.Fatalf("expected cost %d embedded in hash, got %d (%v)", DefaultCost, cost, err)
	}
}

func TestBcryptHasher_Errors(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	if _, err := h.Hash(""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty password, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for long password, got %v", err)
	}
}
