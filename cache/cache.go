package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/jdbcx/jdbcx-core/logging"
)

// Cache is the bounded qid -> QueryInfo map from spec.md §4.6:
// capacity-limited with LRU eviction, per-entry TTL, and single-flight
// admission so two submissions of the same qid share one producer.
//
// hashicorp/golang-lru/v2/expirable already encapsulates its own
// locking (the teacher's concurrency discipline for shared caches), so
// Cache adds only the single-flight admission layer on top via
// golang.org/x/sync/singleflight — exactly the primitive spec.md names
// by that term.
type Cache struct {
	lru   *lru.LRU[string, *QueryInfo]
	group singleflight.Group
	log   logging.Logger

	onEvict func(qid string, qi *QueryInfo)
}

// New builds a Cache with the given capacity and TTL (spec.md defaults:
// capacity 10000, ttl 10s).
func New(capacity int, ttl time.Duration, log logging.Logger) *Cache {
	c := &Cache{log: log}
	c.lru = lru.NewLRU[string, *QueryInfo](capacity, func(qid string, qi *QueryInfo) {
		_ = qi.Close()
		if c.onEvict != nil {
			c.onEvict(qid, qi)
		}
	}, ttl)
	return c
}

// OnEvict registers a callback invoked (in addition to QueryInfo.Close)
// whenever the LRU evicts an entry; cmd/jdbcxd uses it to log the
// evicted qid at debug level.
func (c *Cache) OnEvict(f func(qid string, qi *QueryInfo)) { c.onEvict = f }

// GetOrCreate attaches to an existing entry for qid, or inserts a fresh
// one built by newFn. Exactly one newFn call occurs across concurrent
// racers for the same qid (spec.md §8 invariant 3 "Single-flight").
func (c *Cache) GetOrCreate(qid string, newFn func() *QueryInfo) (*QueryInfo, error) {
	if qi, ok := c.lru.Get(qid); ok {
		return qi, nil
	}
	v, err, _ := c.group.Do(qid, func() (any, error) {
		if qi, ok := c.lru.Get(qid); ok {
			return qi, nil
		}
		qi := newFn()
		c.lru.Add(qid, qi)
		return qi, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*QueryInfo), nil
}

func (c *Cache) Get(qid string) (*QueryInfo, bool) { return c.lru.Get(qid) }

// Remove evicts and closes qid's entry, if present.
func (c *Cache) Remove(qid string) {
	c.lru.Remove(qid)
}

func (c *Cache) Len() int { return c.lru.Len() }

// Keys returns every qid currently resident, for the /metrics endpoint.
func (c *Cache) Keys() []string { return c.lru.Keys() }
