package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPassLock implements domain.PassLock over Redis SET NX. It keeps
// concurrent distribution passes for workspaces that share accounts
// from double-counting the same capacity.
type RedisPassLock struct {
	client *redis.Client
}

// NewRedisPassLock creates the lock.
func NewRedisPassLock(client *redis.Client) *RedisPassLock {
	return &RedisPassLock{client: client}
}

// Acquire takes the workspace lock for at most ttl. The returned
// release function deletes the lock only if this holder still owns it.
func (l *RedisPassLock) Acquire(ctx context.Context, workspaceID string, ttl time.Duration) (func(), bool, error) {
	key := "pass_lock:" + workspaceID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Compare-and-delete so an expired lock taken over by another
		// pass is not released from under it.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		_ = l.client.Eval(context.Background(), script, []string{key}, token).Err()
	}
	return release, true, nil
}
