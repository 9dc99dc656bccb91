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

type payload struct {
	Total int `json:"total"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "stats:7", StatsKey(7))
	assert.Equal(t, "dashboard:7", DashboardKey(7))
}

func TestCacheAside_MissThenHit(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			dest.Total = 6
			return nil
		}
	}

	var first payload
	require.NoError(t, CacheAside(ctx, StatsKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, 6, first.Total)
	assert.True(t, mr.Exists(StatsKey(1)))

	var second payload
	require.NoError(t, CacheAside(ctx, StatsKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, 6, second.Total)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	var third payload
	require.NoError(t, CacheAside(ctx, StatsKey(1), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestCacheAside_FetchErrorNotCached(t *testing.T) {
	mr := setupRedis(t)
	boom := errors.New("boom")

	var dest payload
	err := CacheAside(context.Background(), StatsKey(2), &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(StatsKey(2)))
}

func TestCacheAside_RedisDownFallsThrough(t *testing.T) {
	mr := setupRedis(t)
	mr.Close()

	var dest payload
	err := CacheAside(context.Background(), StatsKey(3), &dest, time.Minute, func() error {
		dest.Total = 9
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, dest.Total)
}

func TestCacheAside_DisabledCallsFetch(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest payload
	require.NoError(t, CacheAside(context.Background(), StatsKey(4), &dest, time.Minute, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupRedis(t)
	require.NoError(t, mr.Set(StatsKey(5), "{}"))
	require.NoError(t, mr.Set(DashboardKey(5), "{}"))
	require.NoError(t, mr.Set(StatsKey(6), "{}"))

	InvalidateUser(context.Background(), 5)

	assert.False(t, mr.Exists(StatsKey(5)))
	assert.False(t, mr.Exists(DashboardKey(5)))
	assert.True(t, mr.Exists(StatsKey(6)))
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	InitRedis("redis://" + mr.Addr())
	assert.NotNil(t, GetClient())
	_ = Close()

	InitRedis(mr.Addr())
	assert.NotNil(t, GetClient())
	_ = Close()

	InitRedis("")
	assert.Nil(t, GetClient())

	InitRedis("redis://%zz")
	assert.Nil(t, GetClient())
}
