package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blogstack/auth-service/internal/core/domain"
)

// StateTTL bounds how long a user has to complete the provider consent screen.
const StateTTL = 5 * time.Minute

// ErrStateNotFound is returned when a state is unknown, expired or already used.
var ErrStateNotFound = &domain.Error{Kind: domain.KindValidation, Message: "Invalid or expired OAuth state"}

// StateStore keeps the PKCE verifier for each pending authorization redirect.
// Key format: oauth_state:<state>
type StateStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStateStore(client redis.Cmdable) *StateStore {
	return &StateStore{client: client, ttl: StateTTL}
}

// Save records verifier under state until the TTL elapses.
func (s *StateStore) Save(ctx context.Context, state, verifier string) error {
	if err := s.client.Set(ctx, stateKey(state), verifier, s.ttl).Err(); err != nil {
		return domain.Internal("save oauth state", err)
	}
	return nil
}

// Consume returns the verifier for state and deletes it, so a state can be
// redeemed once.
func (s *StateStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrStateNotFound
	}
	verifier, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}
		return "", domain.Internal("consume oauth state", err)
	}
	return verifier, nil
}

func stateKey(state string) string {
	return "oauth_state:" + state
}
