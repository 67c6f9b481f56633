package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGetSetJSON(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	err := SetJSON(ctx, "k", payload{Name: "reunion", Count: 3}, time.Minute)
	require.NoError(t, err)

	var got payload
	require.NoError(t, GetJSON(ctx, "k", &got))
	assert.Equal(t, "reunion", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestGetJSON_Miss(t *testing.T) {
	setupMiniredis(t)

	var got payload
	err := GetJSON(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetJSON_NilClientDegrades(t *testing.T) {
	SetClient(nil)

	var got payload
	err := GetJSON(context.Background(), "k", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, SetJSON(context.Background(), "k", got, time.Minute))
}

func TestAside(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (payload, error) {
		calls++
		return payload{Name: "fresh", Count: calls}, nil
	}

	first, err := Aside(ctx, "aside", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)

	second, err := Aside(ctx, "aside", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Count, "second call should hit the cache")
	assert.Equal(t, 1, calls)
}

func TestInvalidateFeedList(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, FeedListKey(10), payload{}, time.Minute))
	require.NoError(t, SetJSON(ctx, FeedListKey(20), payload{}, time.Minute))
	require.NoError(t, SetJSON(ctx, PostKey("p1"), payload{}, time.Minute))

	InvalidateFeedList(ctx)

	assert.False(t, mr.Exists(FeedListKey(10)))
	assert.False(t, mr.Exists(FeedListKey(20)))
	assert.True(t, mr.Exists(PostKey("p1")))
}
