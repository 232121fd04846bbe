package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"familyquest/config"
	"familyquest/utils"
)

// Account lockout for failed logins, keyed by the lowercased account name.
// Redis is used when configured so every instance sees the same lock.

type loginRecord struct {
	Failures  int
	LastAt    time.Time
	LockUntil time.Time
}

var (
	loginMu      sync.Mutex
	loginRecords = make(map[string]*loginRecord)
	cleanupOnce  sync.Once
)

func loginKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func freeAttempts() int {
	return config.GetInt("LOGIN_FREE_ATTEMPTS", 5)
}

// lockFor returns how long an account stays locked after failures attempts.
func lockFor(failures int) time.Duration {
	over := failures - freeAttempts()
	if over <= 0 {
		return 0
	}
	return penaltyFor(over)
}

// IsAccountLocked reports whether logins for name are currently refused.
func IsAccountLocked(name string) (bool, time.Duration) {
	key := loginKey(name)
	if utils.RedisClient != nil {
		ttl, err := utils.RedisClient.TTL(context.Background(), "login:lock:"+key).Result()
		if err == nil && ttl > 0 {
			return true, ttl
		}
		return false, 0
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	rec := loginRecords[key]
	if rec == nil {
		return false, 0
	}
	if wait := time.Until(rec.LockUntil); wait > 0 {
		return true, wait
	}
	return false, 0
}

func RecordFailedLogin(name string) {
	key := loginKey(name)
	if utils.RedisClient != nil {
		ctx := context.Background()
		failKey := "login:fail:" + key
		failures, err := utils.RedisClient.Incr(ctx, failKey).Result()
		if err == nil {
			_ = utils.RedisClient.Expire(ctx, failKey, 30*time.Minute).Err()
			if d := lockFor(int(failures)); d > 0 {
				_ = utils.RedisClient.Set(ctx, "login:lock:"+key, "1", d).Err()
			}
			return
		}
		// fall through to memory on Redis errors
	}

	cleanupOnce.Do(func() { go cleanupLoginRecords() })
	loginMu.Lock()
	defer loginMu.Unlock()
	rec := loginRecords[key]
	if rec == nil {
		rec = &loginRecord{}
		loginRecords[key] = rec
	}
	now := time.Now()
	if now.Sub(rec.LastAt) > 30*time.Minute {
		rec.Failures = 0
	}
	rec.Failures++
	rec.LastAt = now
	if d := lockFor(rec.Failures); d > 0 {
		rec.LockUntil = now.Add(d)
	}
}

func ResetFailedLogin(name string) {
	key := loginKey(name)
	if utils.RedisClient != nil {
		_ = utils.RedisClient.Del(context.Background(), "login:fail:"+key, "login:lock:"+key).Err()
	}
	loginMu.Lock()
	delete(loginRecords, key)
	loginMu.Unlock()
}

func cleanupLoginRecords() {
	tick := time.NewTicker(5 * time.Minute)
	defer tick.Stop()
	for range tick.C {
		now := time.Now()
		loginMu.Lock()
		for k, rec := range loginRecords {
			if now.After(rec.LockUntil) && now.Sub(rec.LastAt) > 30*time.Minute {
				delete(loginRecords, k)
			}
		}
		loginMu.Unlock()
	}
}
