package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/defibrain/advisory-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCacheConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	host, port, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)

	// Host and port are joined from their config string fields; a bad join
	// here makes the startup ping fail and disables the cache entirely.
	cache, err := NewRedisCache(&config.CacheConfig{
		Host: host,
		Port: port,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	ctx := context.Background()
	require.NoError(t, cache.Ping(ctx))

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	_, err := NewRedisCache(&config.CacheConfig{
		Host: "127.0.0.1",
		Port: "1",
	})
	assert.Error(t, err)
}
