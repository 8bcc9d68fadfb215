package cache

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryCache is the development and test implementation. Entries are
// stored as JSON so Get/Set round-trip the same way the Redis cache does.
type MemoryCache struct {
	mu     sync.RWMutex
	groups map[Group]map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{groups: make(map[Group]map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, group Group, key string, dest any) (bool, error) {
	c.mu.RLock()
	b, ok := c.groups[group][key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, group Group, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groups[group] == nil {
		c.groups[group] = make(map[string][]byte)
	}
	c.groups[group][key] = b
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, groups ...Group) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		delete(c.groups, g)
	}
	return nil
}

// Len reports the number of live entries in a group. Test helper.
func (c *MemoryCache) Len(group Group) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.groups[group])
}
