package paperclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetDistinguishesAbsentFromUnknown(t *testing.T) {
	cache := NewCache(CacheOptions{})
	key := Key("test:key")

	_, ok := cache.Get(key)
	require.False(t, ok, "never-populated key should miss")

	cache.Set(key, nil)
	value, ok := cache.Get(key)
	require.True(t, ok, "cached nil means known absent, not a miss")
	assert.Nil(t, value)
}

func TestCache_SetNotifiesSubscribers(t *testing.T) {
	cache := NewCache(CacheOptions{})
	key := Key("test:key")

	var mu sync.Mutex
	var got []any
	unsubscribe := cache.Subscribe(key, func(value any, present bool) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, value)
	})

	cache.Set(key, "first")
	cache.Set(key, "second")

	mu.Lock()
	require.Equal(t, []any{"first", "second"}, got)
	mu.Unlock()

	unsubscribe()
	cache.Set(key, "third")

	mu.Lock()
	assert.Len(t, got, 2, "no notifications after unsubscribe")
	mu.Unlock()
}

func TestCache_RemoveReturnsKeyToUnknown(t *testing.T) {
	cache := NewCache(CacheOptions{})
	key := Key("test:key")

	var lastValue any
	lastPresent := true
	cache.Subscribe(key, func(value any, present bool) {
		lastValue = value
		lastPresent = present
	})

	cache.Set(key, "value")
	cache.Remove(key)

	assert.Nil(t, lastValue)
	require.False(t, lastPresent)
	_, ok := cache.Get(key)
	assert.False(t, ok)
}

func TestCache_InvalidateWithoutSubscribersDrops(t *testing.T) {
	fetched := false
	cache := NewCache(CacheOptions{
		Fetch: func(ctx context.Context, key Key) (any, error) {
			fetched = true
			return nil, nil
		},
	})
	key := Key("test:key")

	cache.Set(key, "stale")
	cache.Invalidate(key)

	_, ok := cache.Get(key)
	require.False(t, ok, "invalidated entry without subscribers should miss")

	time.Sleep(20 * time.Millisecond)
	assert.False(t, fetched, "no refetch without subscribers")
}

func TestCache_InvalidateRefetchesForSubscribers(t *testing.T) {
	cache := NewCache(CacheOptions{
		Fetch: func(ctx context.Context, key Key) (any, error) {
			return "fresh", nil
		},
	})
	key := Key("test:key")

	updates := make(chan any, 1)
	cache.Subscribe(key, func(value any, present bool) {
		updates <- value
	})

	cache.Set(key, "stale")
	<-updates
	cache.Invalidate(key)

	// Stale value stays visible until the refetch lands.
	value, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "stale", value)

	select {
	case value := <-updates:
		assert.Equal(t, "fresh", value)
	case <-time.After(2 * time.Second):
		t.Fatal("refetch never landed")
	}

	value, ok = cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", value)
}

func TestCache_CancelDiscardsInFlightFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	cache := NewCache(CacheOptions{
		Fetch: func(ctx context.Context, key Key) (any, error) {
			close(started)
			<-release
			defer close(done)
			return "stale fetch result", nil
		},
	})
	key := Key("test:key")

	cache.Subscribe(key, func(value any, present bool) {})
	cache.Set(key, "initial")
	cache.Invalidate(key)
	<-started

	// A write that supersedes the in-flight fetch. Its value must win
	// even though the fetch resolves later.
	cache.Cancel(key)
	cache.Set(key, "speculative")

	close(release)
	<-done
	time.Sleep(20 * time.Millisecond)

	value, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "speculative", value, "superseded fetch must not overwrite")
}

func TestCache_RefetchErrorKeepsStaleValue(t *testing.T) {
	done := make(chan struct{})
	cache := NewCache(CacheOptions{
		Fetch: func(ctx context.Context, key Key) (any, error) {
			defer close(done)
			return nil, errors.New("network down")
		},
	})
	key := Key("test:key")

	cache.Subscribe(key, func(value any, present bool) {})
	cache.Set(key, "stale")
	cache.Invalidate(key)

	<-done
	time.Sleep(20 * time.Millisecond)

	value, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "stale", value, "failed refetch keeps the last known value")
}
