package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-while/go-guweb/internal/config"
)

// RedisCache is a CredentialCache shared between frontend processes.
// Redis errors are logged and treated as a miss.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache stores entries under "<prefix>:bcrypt:<hash>"
func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(hash string) string {
	return c.prefix + ":bcrypt:" + hash
}

// Get returns the digest cached for hash
func (c *RedisCache) Get(ctx context.Context, hash string) (string, bool) {
	digest, err := c.rdb.Get(ctx, c.key(hash)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[CACHE]: redis get failed: %v", err)
		}
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return digest, true
}

// Set stores digest for hash without expiry
func (c *RedisCache) Set(ctx context.Context, hash, digest string) {
	if err := c.rdb.Set(ctx, c.key(hash), digest, 0).Err(); err != nil {
		log.Printf("[CACHE]: redis set failed: %v", err)
	}
}

// Stats returns the counters of this process; Entries is not tracked
func (c *RedisCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// NewRedisClient connects to the configured Redis server.
// It returns nil, nil when no address is configured.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	// Ping the server with a short timeout
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
