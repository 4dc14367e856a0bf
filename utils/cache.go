package utils

import (
	"context"
	"encoding/json"
	"time"
)

// Cache operations are best-effort: every failure degrades to a database
// read, never to a request error.
const (
	defaultCacheTTL = time.Hour
	cacheOpTimeout  = 2 * time.Second
)

func cacheCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cacheOpTimeout)
}

// CacheGetBytes returns the cached bytes for key. Any redis error reads as
// a miss so the caller recomputes.
func CacheGetBytes(key string) ([]byte, bool) {
	ctx, cancel := cacheCtx()
	defer cancel()
	b, err := GetRedis().Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// CacheSetJSON marshals v and stores it under key. A non-positive ttl
// selects the default.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := cacheCtx()
	defer cancel()
	if err := GetRedis().Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Debugf("cache set failed key=%s err=%v", key, err)
	}
}

// InvalidateByPrefix removes every key under prefix. The scan is capped so
// a runaway keyspace cannot stall the write that triggered it.
func InvalidateByPrefix(prefix string) {
	ctx, cancel := cacheCtx()
	defer cancel()

	rc := GetRedis()
	iter := rc.Scan(ctx, 0, prefix+"*", 200).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 1000 {
			break
		}
	}
	if len(keys) > 0 {
		_ = rc.Del(ctx, keys...).Err()
	}
}
