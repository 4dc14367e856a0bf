package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kageban/kageban/config"
)

var (
	rdb     *redis.Client
	rdbOnce sync.Once
)

// GetRedis returns the shared client. Redis is optional for this app: the
// timeline cache degrades to database reads and the token blacklist falls
// back to process memory, so an unreachable server only logs at boot.
func GetRedis() *redis.Client {
	rdbOnce.Do(initRedis)
	return rdb
}

func initRedis() {
	cfg := config.Get()
	rdb = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("redis unreachable, degrading to fallbacks: %v", err)
	}
}
