package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) (*RedisPassLock, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPassLock(client), srv
}

func TestLockIsExclusivePerWorkspace(t *testing.T) {
	lock, _ := newTestLock(t)

	release, ok, err := lock.Acquire(context.Background(), "ws-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire must succeed: ok=%v err=%v", ok, err)
	}
	if _, again, err := lock.Acquire(context.Background(), "ws-1", time.Minute); err != nil || again {
		t.Fatalf("second acquire must be refused: ok=%v err=%v", again, err)
	}
	// An unrelated workspace is not blocked.
	if _, other, err := lock.Acquire(context.Background(), "ws-2", time.Minute); err != nil || !other {
		t.Fatalf("other workspace must acquire: ok=%v err=%v", other, err)
	}

	release()
	if _, ok, err := lock.Acquire(context.Background(), "ws-1", time.Minute); err != nil || !ok {
		t.Fatalf("acquire after release must succeed: ok=%v err=%v", ok, err)
	}
}

func TestReleaseAfterExpiryLeavesNewHolderAlone(t *testing.T) {
	lock, srv := newTestLock(t)

	staleRelease, ok, err := lock.Acquire(context.Background(), "ws-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire must succeed: ok=%v err=%v", ok, err)
	}

	// The first holder's TTL lapses and another pass takes the lock.
	srv.FastForward(2 * time.Minute)
	if _, ok, err := lock.Acquire(context.Background(), "ws-1", time.Minute); err != nil || !ok {
		t.Fatalf("acquire after expiry must succeed: ok=%v err=%v", ok, err)
	}

	// The stale release must not delete the new holder's lock.
	staleRelease()
	if _, ok, err := lock.Acquire(context.Background(), "ws-1", time.Minute); err != nil || ok {
		t.Fatalf("new holder's lock must survive a stale release: ok=%v err=%v", ok, err)
	}
}
