package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Harsh-BH/chroma/internal/repository"
)

var _ repository.PollLock = (*redisPollLock)(nil)

const lockKeyPrefix = "chroma:poll:"

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisPollLock struct {
	client *goredis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string // jobID -> token of the acquire we hold
}

// NewRedisPollLock creates a Redis-backed poll lock shared by every relay
// instance. ttl must outlive the longest polling loop, HTTP timeouts included.
func NewRedisPollLock(client *goredis.Client, ttl time.Duration) repository.PollLock {
	return &redisPollLock{client: client, ttl: ttl, tokens: make(map[string]string)}
}

// Acquire uses SET NX with a fresh token so only one instance polls a given job.
func (r *redisPollLock) Acquire(ctx context.Context, jobID string) (bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKey(jobID), token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire poll lock: %w", err)
	}
	if ok {
		r.mu.Lock()
		r.tokens[jobID] = token
		r.mu.Unlock()
	}
	return ok, nil
}

// Release drops the lock only if the stored token is still ours. A lock that
// expired and was taken by another instance is left alone.
func (r *redisPollLock) Release(ctx context.Context, jobID string) error {
	r.mu.Lock()
	token, ok := r.tokens[jobID]
	delete(r.tokens, jobID)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{lockKey(jobID)}, token).Err(); err != nil {
		return fmt.Errorf("redis: release poll lock: %w", err)
	}
	return nil
}

func lockKey(jobID string) string {
	return lockKeyPrefix + jobID
}
