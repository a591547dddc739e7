package services

import (
	"context"
	"log"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/affectly/affectly-backend/internal/database"
)

// ReferenceLock serializes work on a single payment reference so duplicate
// webhook deliveries or double-clicked callbacks cannot both grant premium.
type ReferenceLock interface {
	// Acquire blocks until the lock for reference is held, then returns a
	// release func. Callers must release on every path, including errors.
	Acquire(ctx context.Context, reference string) (release func(), err error)
}

const (
	verifyLockPrefix = "verify_lock:"
	verifyLockExpiry = 30 * time.Second
	verifyLockTries  = 16
)

// RedisReferenceLock is the production ReferenceLock, a redsync mutex per
// reference over the shared Redis connection.
type RedisReferenceLock struct {
	rs *redsync.Redsync
}

// NewRedisReferenceLock builds a lock manager over the global Redis client.
func NewRedisReferenceLock() *RedisReferenceLock {
	return newRedisReferenceLock(database.RedisClient)
}

func newRedisReferenceLock(client *redis.Client) *RedisReferenceLock {
	pool := goredis.NewPool(client)
	return &RedisReferenceLock{rs: redsync.New(pool)}
}

// Acquire takes the per-reference mutex. The expiry bounds how long a
// crashed holder can block other verifications of the same reference.
func (l *RedisReferenceLock) Acquire(ctx context.Context, reference string) (func(), error) {
	mutex := l.rs.NewMutex(
		verifyLockPrefix+reference,
		redsync.WithExpiry(verifyLockExpiry),
		redsync.WithTries(verifyLockTries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	release := func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			log.Printf("Warning: failed to release verify lock for %s: %v", reference, err)
		}
	}
	return release, nil
}
