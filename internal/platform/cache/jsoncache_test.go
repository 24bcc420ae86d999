package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func newTestCache(t *testing.T) *JSONCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "test", time.Minute)
}

func TestFetchJSONPopulatesThenServesCached(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "widgets", "all")
	require.NoError(t, err)

	loads := 0
	loader := func(ctx context.Context) (interface{}, error) {
		loads++
		return []string{"a", "b"}, nil
	}

	var got []string
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 1, loads, "second fetch must be served from redis")
	require.Equal(t, []string{"a", "b"}, got)
}

func TestBumpInvalidatesBuiltKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "widgets", "all")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "widgets", "all")
	require.NoError(t, err)
	require.NotEqual(t, before, after, "bump must rotate every built key")
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var c *JSONCache
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "widgets", "all")
	require.NoError(t, err)

	loads := 0
	var got []int
	loader := func(ctx context.Context) (interface{}, error) {
		loads++
		return []int{1, 2, 3}, nil
	}
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 2, loads, "nil cache must hit the loader every time")
	require.NoError(t, c.Bump(ctx))
}
