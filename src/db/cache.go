package db

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Kind groups cache entries so every entry of one kind can be dropped at once.
type Kind string

const (
	ExpenseKind  Kind = "expenses"
	CategoryKind Kind = "categories"
	AccountKind  Kind = "accounts"
)

// Cache holds per-user listings. Keys are tracked per kind because ristretto
// cannot enumerate its own contents.
//
// Every Del or ClearAll bumps a generation. A listing read from the database
// is only stored when no invalidation happened since the read started, see
// SetIfCurrent.
type Cache struct {
	store *ristretto.Cache

	mu      sync.Mutex
	keys    map[Kind]map[string]struct{}
	gens    map[string]uint64
	cleared map[Kind]uint64
}

func NewCache(maxCost int64) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10, // number of keys to track frequency of
		MaxCost:     maxCost,
		BufferItems: 64, // number of keys per Get buffer
		// every entry costs 1, so MaxCost is an entry count
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &Cache{
		store:   store,
		keys:    make(map[Kind]map[string]struct{}),
		gens:    make(map[string]uint64),
		cleared: make(map[Kind]uint64),
	}, nil
}

func cacheKey(kind Kind, userID string) string {
	return string(kind) + ":" + userID
}

func (c *Cache) Get(kind Kind, userID string) (interface{}, bool) {
	return c.store.Get(cacheKey(kind, userID))
}

// Generation identifies the invalidation state of one listing. Take it
// before reading from the database and hand it to SetIfCurrent.
func (c *Cache) Generation(kind Kind, userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(kind, cacheKey(kind, userID))
}

func (c *Cache) generation(kind Kind, key string) uint64 {
	return c.gens[key] + c.cleared[kind]
}

// Set stores value unconditionally.
func (c *Cache) Set(kind Kind, userID string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(kind, cacheKey(kind, userID), value)
}

// SetIfCurrent stores value only if the listing was not invalidated after gen
// was taken, and reports whether it did.
func (c *Cache) SetIfCurrent(kind Kind, userID string, value interface{}, gen uint64) bool {
	key := cacheKey(kind, userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(kind, key) != gen {
		return false
	}
	c.set(kind, key, value)
	return true
}

// set needs c.mu held.
func (c *Cache) set(kind Kind, key string, value interface{}) {
	if c.keys[kind] == nil {
		c.keys[kind] = make(map[string]struct{})
	}
	c.keys[kind][key] = struct{}{}
	c.store.Set(key, value, 1)
	c.store.Wait()
}

func (c *Cache) Del(kind Kind, userID string) {
	key := cacheKey(kind, userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	delete(c.keys[kind], key)
	c.store.Del(key)
}

func (c *Cache) ClearAll(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared[kind]++
	for key := range c.keys[kind] {
		c.store.Del(key)
	}
	delete(c.keys, kind)
}

func (c *Cache) Close() {
	c.store.Close()
}
