// Package cache memoizes results of pure queries. A cache is never the source
// of truth: callers key entries by a version of the underlying state and drop
// stale keys when that state changes.
package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	hits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enrollment",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache lookups answered from memory",
	}, []string{"cache"})

	misses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enrollment",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache lookups that had to compute a value",
	}, []string{"cache"})

	evictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enrollment",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted to stay within capacity",
	}, []string{"cache"})
)

const DefaultCapacity = 256

// LRU is a fixed-size, least-recently-used cache. It is safe for concurrent
// use.
type LRU[K comparable, V any] struct {
	name     string
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front is most recent
	flight   singleflight.Group

	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache reporting metrics under name. A non-positive capacity
// means DefaultCapacity.
func New[K comparable, V any](name string, capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		name:      name,
		capacity:  capacity,
		items:     make(map[K]*list.Element, capacity),
		order:     list.New(),
		hits:      hits.WithLabelValues(name),
		misses:    misses.WithLabelValues(name),
		evictions: evictions.WithLabelValues(name),
	}
}

func (c *LRU[K, V]) Name() string {
	return c.name
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits.Inc()
		return elem.Value.(*entry[K, V]).value, true
	}
	c.misses.Inc()
	var zero V
	return zero, false
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
			c.evictions.Inc()
		}
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
}

// Delete reports whether key was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
		return true
	}
	return false
}

// DeleteFunc removes every entry whose key matches and returns how many were
// removed.
func (c *LRU[K, V]) DeleteFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if match(key) {
			c.remove(elem)
			removed++
		}
	}
	return removed
}

func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Concurrent callers for the same key share one computation. Errors are not
// cached.
func (c *LRU[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	result, err, _ := c.flight.Do(fmt.Sprint(key), func() (any, error) {
		c.mu.Lock()
		elem, ok := c.items[key]
		c.mu.Unlock()
		if ok {
			return elem.Value.(*entry[K, V]).value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *LRU[K, V]) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}
