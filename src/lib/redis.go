package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// GetRedisClient returns the shared cache client, or nil when REDIS_HOST
// is unset or unparsable. Callers treat a nil client as cache-off and
// read from the database instead.
func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// CacheRead returns the cached value for key, or "" on a miss or when the
// cache is offline.
func CacheRead(key string) string {
	rd := GetRedisClient()
	if rd == nil {
		return ""
	}
	return rd.Get(context.Background(), key).Val()
}

// CacheWrite stores val under key for ttl. Best effort: a dead cache only
// costs the next reader a database query.
func CacheWrite(key, val string, ttl time.Duration) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.SetEx(context.Background(), key, val, ttl).Err(); err != nil {
		log.Printf("[redis] Failed to cache %s: %s\n", key, err.Error())
	}
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}
