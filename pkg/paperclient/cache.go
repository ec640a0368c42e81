package paperclient

import (
	"context"
	"log/slog"
	"sync"
)

// FetchFunc loads the authoritative value for a key. Invalidate uses it
// to refresh entries that still have active subscribers.
type FetchFunc func(ctx context.Context, key Key) (any, error)

// Subscriber is notified whenever its key's entry changes. present is
// false when the entry has been dropped from the cache entirely.
type Subscriber func(value any, present bool)

type cacheEntry struct {
	value   any
	present bool
	// generation is bumped by Cancel, Set, Remove, and Invalidate. An
	// in-flight fetch records the generation it started at and discards
	// its result if the entry has moved on.
	generation  uint64
	subscribers map[int]Subscriber
}

// Cache holds the last known result for each read key and notifies
// subscribers on change. It is the shared state between the mutation
// coordinator (speculative writes) and background refetches; generation
// counters give the coordinator a single-writer window per key between
// Cancel and Set.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*cacheEntry
	fetch   FetchFunc
	logger  *slog.Logger
	nextSub int
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Fetch resolves keys on invalidation-triggered refetches. Nil
	// disables background refetch; Invalidate then only drops the entry.
	Fetch  FetchFunc
	Logger *slog.Logger
}

// NewCache creates an empty cache.
func NewCache(opts CacheOptions) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		entries: make(map[Key]*cacheEntry),
		fetch:   opts.Fetch,
		logger:  logger,
	}
}

func (c *Cache) entry(key Key) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{subscribers: make(map[int]Subscriber)}
		c.entries[key] = e
	}
	return e
}

// Get returns the current cached value for key. The second return is
// false when the key has never been populated (distinct from a cached
// nil, which means "known absent").
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.present {
		return nil, false
	}
	return e.value, true
}

// Set replaces the cached value for key and synchronously notifies
// subscribers. Any in-flight fetch for the key is superseded.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	e := c.entry(key)
	e.value = value
	e.present = true
	e.generation++
	subs := collectSubscribers(e)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(value, true)
	}
}

// Remove drops the entry for key entirely, returning it to the
// never-populated state. Subscribers are notified with present=false.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.value = nil
	e.present = false
	e.generation++
	subs := collectSubscribers(e)
	if len(e.subscribers) == 0 {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(nil, false)
	}
}

// Cancel aborts any in-flight fetch for key: a fetch that started
// before the Cancel discards its result instead of writing it. Cancel
// returns only once the abort is effective, so the caller may write a
// speculative value without racing the stale read.
func (c *Cache) Cancel(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry(key).generation++
}

// Invalidate marks the entry stale. If the key has active subscribers
// and a fetch function is configured, a background refetch is started;
// the stale value stays visible until the refetch lands. Without
// subscribers the entry is dropped so the next Get misses.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.generation++

	if len(e.subscribers) == 0 || c.fetch == nil {
		e.value = nil
		e.present = false
		if len(e.subscribers) == 0 {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return
	}

	gen := e.generation
	c.mu.Unlock()

	go c.refetch(key, gen)
}

// refetch loads the authoritative value and applies it unless the entry
// moved on (a Cancel, Set, or newer Invalidate) while the fetch ran.
func (c *Cache) refetch(key Key, gen uint64) {
	value, err := c.fetch(context.Background(), key)
	if err != nil {
		c.logger.Debug("cache refetch failed", "key", string(key), "error", err)
		return
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.generation != gen {
		c.mu.Unlock()
		return
	}
	e.value = value
	e.present = true
	subs := collectSubscribers(e)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(value, true)
	}
}

// Subscribe registers fn for change notifications on key and returns an
// unsubscribe function.
func (c *Cache) Subscribe(key Key, fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.entry(key).subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		e, ok := c.entries[key]
		if !ok {
			return
		}
		delete(e.subscribers, id)
		if len(e.subscribers) == 0 && !e.present {
			delete(c.entries, key)
		}
	}
}

func collectSubscribers(e *cacheEntry) []Subscriber {
	if len(e.subscribers) == 0 {
		return nil
	}
	subs := make([]Subscriber, 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
