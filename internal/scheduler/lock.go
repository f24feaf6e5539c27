package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultLockKey = "email-reminder:scan-lock"

// releaseScript deletes the lock only when it is still held by this token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only when it is still held by this token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a SET NX lock shared by every instance pointing at the same Redis.
// The TTL bounds how long a crashed holder blocks other instances.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultLockKey
	}

	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

func (l *RedisLocker) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

func (l *RedisLocker) Refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}
