package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	app_errors "chatrelay/backend/internal/errors"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

const resetKeyPrefix = "pwreset:"

// ResetStore keeps single-use password reset tokens in Redis, expiring them
// automatically after ResetTokenTTL.
type ResetStore struct {
	rdb *redis.Client
}

func NewResetStore(rdb *redis.Client) *ResetStore {
	return &ResetStore{rdb: rdb}
}

// Create mints an opaque token bound to the user and stores it with a TTL.
func (s *ResetStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, resetKeyPrefix+token, userID, ResetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("could not store reset token: %w", err)
	}
	return token, nil
}

// Consume atomically fetches and deletes a token, returning the bound user ID.
// Unknown or already-used tokens fail with ErrAuth.
func (s *ResetStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, resetKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("%w: invalid or expired reset token", app_errors.ErrAuth)
	}
	if err != nil {
		return "", fmt.Errorf("could not consume reset token: %w", err)
	}
	return userID, nil
}
