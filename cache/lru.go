package cache

import (
	"context"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Compile-time check to ensure LRUCache implements AlternativesCache interface
var _ interfaces.AlternativesCache = (*LRUCache)(nil)

// LRUCache is an in-process alternatives cache with LRU eviction.
// The underlying lru.Cache is already safe for concurrent use.
type LRUCache struct {
	cache *lru.Cache[string, entities.AlternativesResult]
}

// NewLRUCache creates an LRU cache holding at most capacity results
func NewLRUCache(capacity int) (*LRUCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c, err := lru.New[string, entities.AlternativesResult](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: c}, nil
}

// Get returns the cached result for key
func (c *LRUCache) Get(_ context.Context, key string) (entities.AlternativesResult, bool, error) {
	result, ok := c.cache.Get(key)
	return result, ok, nil
}

// Set stores result under key
func (c *LRUCache) Set(_ context.Context, key string, result entities.AlternativesResult) error {
	c.cache.Add(key, result)
	return nil
}

// Purge drops every entry
func (c *LRUCache) Purge(_ context.Context) error {
	c.cache.Purge()
	return nil
}

// Len returns the number of cached results
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// Name identifies the backend in logs and health output
func (c *LRUCache) Name() string {
	return "lru"
}

// Close is a no-op for the in-process cache
func (c *LRUCache) Close() error {
	return nil
}
