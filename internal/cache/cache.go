package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ef-ds/deque"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned by Resolve when the name is not cached.
	ErrNotFound = errors.New("name not found in cache")
	// ErrInvalidCapacity is returned by New for a capacity below one.
	ErrInvalidCapacity = errors.New("cache capacity must be positive")
)

// Observer receives cache events. Calls happen after the lock is released
// and must not block.
type Observer interface {
	Inserted(size int)
	Duplicate()
	Evicted()
	Hit()
	Miss()
}

type noopObserver struct{}

func (noopObserver) Inserted(int) {}
func (noopObserver) Duplicate()   {}
func (noopObserver) Evicted()     {}
func (noopObserver) Hit()         {}
func (noopObserver) Miss()        {}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Capacity   int   `json:"capacity"`
	Inserts    int64 `json:"inserts"`
	Duplicates int64 `json:"duplicates"`
	Evictions  int64 `json:"evictions"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
}

// DNSCache maps domain names to IP strings and holds at most capacity
// entries. Names are admitted once; when the cache is full the oldest
// admitted name is evicted to make room.
type DNSCache struct {
	mu       sync.Mutex
	entries  map[string]string
	order    deque.Deque // names, oldest first
	capacity int

	log      zerolog.Logger
	observer Observer

	stats struct {
		inserts    int64
		duplicates int64
		evictions  int64
		hits       int64
		misses     int64
	}
}

// Option configures a DNSCache at construction time.
type Option func(*DNSCache)

// WithLogger sets the logger used for eviction traces.
func WithLogger(log zerolog.Logger) Option {
	return func(c *DNSCache) {
		c.log = log.With().Str("component", "cache").Logger()
	}
}

// WithObserver registers an event observer. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(c *DNSCache) {
		if o != nil {
			c.observer = o
		}
	}
}

func New(capacity int, opts ...Option) (*DNSCache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new cache with capacity %d: %w", capacity, ErrInvalidCapacity)
	}

	c := &DNSCache{
		entries:  make(map[string]string, capacity),
		capacity: capacity,
		log:      zerolog.Nop(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Update stores ip for name unless name is already cached, in which case the
// stored value and its eviction position are left untouched.
func (c *DNSCache) Update(name, ip string) {
	c.mu.Lock()
	if _, ok := c.entries[name]; ok {
		c.mu.Unlock()
		atomic.AddInt64(&c.stats.duplicates, 1)
		c.observer.Duplicate()
		return
	}

	var evicted string
	var didEvict bool
	if c.order.Len() == c.capacity {
		front, _ := c.order.PopFront()
		evicted = front.(string)
		delete(c.entries, evicted)
		didEvict = true
	}
	c.entries[name] = ip
	c.order.PushBack(name)
	size := len(c.entries)
	c.mu.Unlock()

	if didEvict {
		atomic.AddInt64(&c.stats.evictions, 1)
		c.observer.Evicted()
		c.log.Debug().Str("name", evicted).Msg("evicted oldest entry")
	}
	atomic.AddInt64(&c.stats.inserts, 1)
	c.observer.Inserted(size)
}

// Resolve returns the IP stored for name. The error wraps ErrNotFound when
// the name was never inserted or has been evicted.
func (c *DNSCache) Resolve(name string) (string, error) {
	c.mu.Lock()
	ip, ok := c.entries[name]
	c.mu.Unlock()

	if !ok {
		atomic.AddInt64(&c.stats.misses, 1)
		c.observer.Miss()
		return "", fmt.Errorf("resolve %q: %w", name, ErrNotFound)
	}
	atomic.AddInt64(&c.stats.hits, 1)
	c.observer.Hit()
	return ip, nil
}

func (c *DNSCache) Stats() Stats {
	return Stats{
		Capacity:   c.capacity,
		Inserts:    atomic.LoadInt64(&c.stats.inserts),
		Duplicates: atomic.LoadInt64(&c.stats.duplicates),
		Evictions:  atomic.LoadInt64(&c.stats.evictions),
		Hits:       atomic.LoadInt64(&c.stats.hits),
		Misses:     atomic.LoadInt64(&c.stats.misses),
	}
}
