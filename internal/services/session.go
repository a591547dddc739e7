package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/affectly/affectly-backend/internal/database"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions. Sessions are
	// issued by the identity service; this backend only validates them.
	SessionKeyPrefix = "session:"
)

// ValidateSession checks if a session token is valid and returns the user ID
func ValidateSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	// Get user ID from session
	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, nil
}
