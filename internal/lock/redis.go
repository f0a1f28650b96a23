package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisGuard Redis 分布式锁实现（多实例部署）
// SETNX lease with owner check on release. The lease TTL bounds how long a
// crashed holder can block other instances.
type RedisGuard struct {
	client   *redis.Client
	prefix   string
	lease    time.Duration
	retryGap time.Duration
}

func NewRedisGuard(client *redis.Client, prefix string) *RedisGuard {
	return &RedisGuard{
		client:   client,
		prefix:   prefix,
		lease:    10 * time.Second,
		retryGap: 50 * time.Millisecond,
	}
}

// release only deletes the key when this process still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisGuard) WithLock(ctx context.Context, key string, fn func() error) error {
	lockKey := g.prefix + ":" + key
	owner := uuid.NewString()

	for {
		ok, err := g.client.SetNX(ctx, lockKey, owner, g.lease).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for lock %s: %w", lockKey, ctx.Err())
		case <-time.After(g.retryGap):
		}
	}
	defer releaseScript.Run(context.Background(), g.client, []string{lockKey}, owner)

	return fn()
}
