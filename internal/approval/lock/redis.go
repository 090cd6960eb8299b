package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "vantage/pkg/domain-errors"
)

// releaseScript deletes the lock key only when it still holds our token, so
// a lock that expired and was re-acquired by another replica is never
// released by the original holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a distributed locker built on SET NX PX. Acquisition polls until
// the context is done; the TTL bounds how long a crashed holder can block
// others.
type Redis struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		client:        client,
		ttl:           ttl,
		retryInterval: 25 * time.Millisecond,
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "lock:" + key

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire tenant lock")
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = releaseScript.Run(releaseCtx, r.client, []string{lockKey}, token).Result()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeInternal, "tenant lock acquisition cancelled")
		case <-time.After(r.retryInterval):
		}
	}
}
