package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-while/go-guweb/internal/config"
)

func testCacheContract(t *testing.T, c CredentialCache) {
	ctx := context.Background()

	_, ok := c.Get(ctx, "$2b$12$hash")
	assert.False(t, ok)

	c.Set(ctx, "$2b$12$hash", "5f4dcc3b5aa765d61d8327deb882cf99")
	digest, ok := c.Get(ctx, "$2b$12$hash")
	assert.True(t, ok)
	assert.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99", digest)

	// overwrite is idempotent and last write wins
	c.Set(ctx, "$2b$12$hash", "5f4dcc3b5aa765d61d8327deb882cf99")
	c.Set(ctx, "$2b$12$hash", "e10adc3949ba59abbe56e057f20f883e")
	digest, ok = c.Get(ctx, "$2b$12$hash")
	assert.True(t, ok)
	assert.Equal(t, "e10adc3949ba59abbe56e057f20f883e", digest)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	testCacheContract(t, c)

	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, int64(2), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.InDelta(t, 66.66, st.HitRate(), 0.1)
	assert.Equal(t, "1 entries, 2 hits, 1 misses (66.7% hit rate)", st.String())

	var _ StatsReporter = c
	var _ StatsReporter = (*RedisCache)(nil)
	assert.Equal(t, "0 entries, 0 hits, 0 misses (0.0% hit rate)", Stats{}.String())
}

func TestMemoryCacheConcurrent(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(ctx, "h", "d")
				c.Get(ctx, "h")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1600), c.Stats().Hits)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := NewRedisCache(rdb, "guweb")
	testCacheContract(t, c)

	assert.True(t, mr.Exists("guweb:bcrypt:$2b$12$hash"))
	assert.Equal(t, int64(2), c.Stats().Hits)
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	c := NewRedisCache(rdb, "guweb")
	ctx := context.Background()

	c.Set(ctx, "h", "d")
	mr.Close()

	_, ok := c.Get(ctx, "h")
	assert.False(t, ok)
	c.Set(ctx, "h", "d") // logged, not fatal
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(ctx, config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
