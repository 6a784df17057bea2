package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *item) func() error {
		return func() error {
			calls++
			dest.Name = "fresh"
			return nil
		}
	}

	var first item
	require.NoError(t, Aside(ctx, "k", &first, time.Minute, fetch(&first)))
	assert.Equal(t, "fresh", first.Name)
	assert.True(t, mr.Exists("k"))

	var second item
	require.NoError(t, Aside(ctx, "k", &second, time.Minute, fetch(&second)))
	assert.Equal(t, "fresh", second.Name)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupRedis(t)

	var dest item
	err := Aside(context.Background(), "k", &dest, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("k"))
}

func TestAside_NoClient(t *testing.T) {
	SetClient(nil)

	var dest item
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = Close() })
	mr.Close()

	var dest item
	err = Aside(context.Background(), "k", &dest, time.Minute, func() error {
		dest.Name = "db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", dest.Name)
}

func TestPostsListKey_Versioned(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	assert.Equal(t, "posts:list:v0:page:1", PostsListKey(ctx, 1))
	InvalidatePostsList(ctx)
	assert.Equal(t, "posts:list:v1:page:2", PostsListKey(ctx, 2))
}

func TestInvalidateUser(t *testing.T) {
	mr := setupRedis(t)
	require.NoError(t, mr.Set(UserKey(4), "{}"))

	InvalidateUser(context.Background(), 4)
	assert.False(t, mr.Exists("user:4"))
}
