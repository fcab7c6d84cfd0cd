package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const balanceTTL = 5 * time.Minute

// unlockScript deletes the lock only when the caller still owns it.
var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

func balanceKey(userID uint64) string { return fmt.Sprintf("balance:%d", userID) }

func lockKey(key string) string { return "lock:" + key }

// CacheBalance writes Redis.
func (r *Repository) CacheBalance(ctx context.Context, userID uint64, bal decimal.Decimal) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Set(ctx, balanceKey(userID), bal.String(), balanceTTL).Err()
}

// GetCachedBalance reads Redis; redis.Nil on a miss or when no client is configured.
func (r *Repository) GetCachedBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	if r.rdb == nil {
		return decimal.Zero, redis.Nil
	}
	str, err := r.rdb.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(str)
}

// AcquireLock takes a SETNX lock for ttl. The returned func releases it and is
// safe to call more than once. Without Redis the lock is process-local and
// always granted.
func (r *Repository) AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if r.rdb == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(unlockCtx, r.rdb, []string{lockKey(key)}, token).Err(); err != nil && err != redis.Nil {
			r.log.Warnw("release lock", "key", key, "err", err)
		}
	}, nil
}
