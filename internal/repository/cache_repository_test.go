package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client), server
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, server := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "recap:7A:Math:odd", map[string]int{"rows": 3}, time.Minute))
	assert.True(t, server.Exists("gradebook:recap:7A:Math:odd"))

	var out map[string]int
	require.NoError(t, repo.Get(ctx, "recap:7A:Math:odd", &out))
	assert.Equal(t, 3, out["rows"])

	server.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "recap:7A:Math:odd", &out), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, server := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "recap:7A", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "recap:7B", 2, time.Minute))
	require.NoError(t, server.Set("other:key", "x"))

	require.NoError(t, repo.DeleteByPattern(ctx, "recap:*"))

	var out int
	assert.ErrorIs(t, repo.Get(ctx, "recap:7A", &out), appErrors.ErrCacheMiss)
	assert.ErrorIs(t, repo.Get(ctx, "recap:7B", &out), appErrors.ErrCacheMiss)
	assert.True(t, server.Exists("other:key"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var out int
	assert.ErrorIs(t, repo.Get(ctx, "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Ping(ctx))
}
