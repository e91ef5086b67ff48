package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/tool"
)

// ErrNotObtained is returned when another owner holds the key.
var ErrNotObtained = errors.New("lock not obtained")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive leases on keys.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

// NewLocker returns a Redis-backed locker, or a no-op locker when client is nil.
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return NopLocker{}
	}
	return &RedisLocker{client: client}
}

type RedisLocker struct {
	client redis.Cmdable
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	token := tool.GenerateToken()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotObtained
	}
	return &redisLease{client: l.client, key: key, token: token}, nil
}

type redisLease struct {
	client redis.Cmdable
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", r.key, err)
	}
	return nil
}

// NopLocker always grants the lease.
type NopLocker struct{}

func (NopLocker) Obtain(context.Context, string, time.Duration) (Lease, error) {
	return nopLease{}, nil
}

type nopLease struct{}

func (nopLease) Release(context.Context) error { return nil }
