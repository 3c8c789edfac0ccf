package dataimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCacheHit(t *testing.T) {
	cache := NewLoadCache(NewLoader("Base"), 4)
	data := employeesWorkbook(t)

	ds1, key1, err := cache.Load(data)
	require.NoError(t, err)
	ds2, key2, err := cache.Load(data)
	require.NoError(t, err)

	assert.Same(t, ds1, ds2)
	assert.Equal(t, key1, key2)
	assert.Equal(t, ContentHash(data), key1)
	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestLoadCacheInvalidate(t *testing.T) {
	cache := NewLoadCache(NewLoader("Base"), 4)
	data := employeesWorkbook(t)
	ds1, key, err := cache.Load(data)
	require.NoError(t, err)

	assert.True(t, cache.Invalidate(key))
	assert.False(t, cache.Invalidate(key))

	ds2, _, err := cache.Load(data)
	require.NoError(t, err)
	assert.NotSame(t, ds1, ds2)
	assert.Equal(t, int64(2), cache.Stats().Misses)
}

func TestLoadCacheDoesNotKeepErrors(t *testing.T) {
	cache := NewLoadCache(NewLoader("Base"), 4)
	bad := []byte("garbage")
	_, _, err := cache.Load(bad)
	assert.ErrorIs(t, err, ErrLoad)
	_, _, err = cache.Load(bad)
	assert.ErrorIs(t, err, ErrLoad)
	stats := cache.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestLoadCacheEviction(t *testing.T) {
	cache := NewLoadCache(NewLoader("Base"), 1)
	first := employeesWorkbook(t)
	second := makeWorkbook(t, "Base", [][]any{{"ID", "Turnover"}, {1, "Sim"}})

	_, key1, err := cache.Load(first)
	require.NoError(t, err)
	_, _, err = cache.Load(second)
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.False(t, cache.Invalidate(key1))
}

func TestLoadCachePurge(t *testing.T) {
	cache := NewLoadCache(NewLoader("Base"), 4)
	_, _, err := cache.Load(employeesWorkbook(t))
	require.NoError(t, err)
	cache.Purge()
	assert.Equal(t, 0, cache.Stats().Size)
}
