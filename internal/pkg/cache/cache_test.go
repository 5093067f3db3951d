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

func TestJSONRoundTripAndExpiry(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	type payload struct {
		ID string `json:"id"`
	}
	var store JSONStore
	require.NoError(t, store.SetJSON(ctx, "k", payload{ID: "cs_1"}, time.Minute))

	var got payload
	hit, err := store.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "cs_1", got.ID)

	mr.FastForward(2 * time.Minute)
	hit, err = store.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSetGetDelete(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, Set(ctx, "plain", "v", 0))
	v, err := Get(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, Delete(ctx, "plain"))
	_, err = Get(ctx, "plain")
	assert.ErrorIs(t, err, redis.Nil)
}
