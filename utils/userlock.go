package utils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const userLockPrefix = "lock:user:"

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

var (
	localLocks   = map[string]time.Time{}
	localLocksMu sync.Mutex
)

// AcquireUserLock takes the in-flight lock for key (usually user and
// operation). ok is false when another request holds it. Redis failures fall
// back to an in-process lock so a Redis outage never blocks users.
func AcquireUserLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool) {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if rc := GetRedis(); rc != nil {
		token := uuid.NewString()
		lctx, cancel := context.WithTimeout(ctx, time.Second)
		acquired, err := rc.SetNX(lctx, userLockPrefix+key, token, ttl).Result()
		cancel()
		if err == nil {
			if !acquired {
				return func() {}, false
			}
			return func() {
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, rc, []string{userLockPrefix + key}, token).Err(); err != nil {
					Sugar.Warnf("release user lock %s: %v", key, err)
				}
			}, true
		}
		Sugar.Warnf("user lock unavailable, using local lock: %v", err)
	}
	return acquireLocal(key, ttl)
}

func acquireLocal(key string, ttl time.Duration) (func(), bool) {
	now := time.Now()
	localLocksMu.Lock()
	defer localLocksMu.Unlock()
	if exp, held := localLocks[key]; held && now.Before(exp) {
		return func() {}, false
	}
	expires := now.Add(ttl)
	localLocks[key] = expires
	return func() {
		localLocksMu.Lock()
		if localLocks[key] == expires {
			delete(localLocks, key)
		}
		localLocksMu.Unlock()
	}, true
}
