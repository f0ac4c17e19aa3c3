package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/dailymood/store"
	"github.com/xraph/dailymood/store/redis"
	"github.com/xraph/dailymood/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		mr := miniredis.RunT(t)
		s, err := redis.Connect(context.Background(), &goredis.Options{Addr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	storetest.Run(t, func(t *testing.T) store.Store {
		mr.FlushAll()
		return redis.New(client, redis.WithPrefix("moods-test"))
	})

	for _, key := range mr.Keys() {
		assert.Regexp(t, `^moods-test:\{dmc_[0-9a-z]+\}:`, key)
	}
}

func TestConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redis.Connect(context.Background(), &goredis.Options{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
}
