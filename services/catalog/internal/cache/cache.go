package cache

import "context"

// Cache is a group-tagged read cache. Every stored entry belongs to one
// Group; Invalidate evicts a whole group atomically, which is how
// mutations keep derived list and search views coherent.
//
// Cache failures are a bounded staleness condition, not a correctness
// one: callers log and move on, they never surface cache errors.
type Cache interface {
	// Get unmarshals the cached entry into dest and reports whether it was present.
	Get(ctx context.Context, group Group, key string, dest any) (bool, error)
	// Set stores value under the group tag.
	Set(ctx context.Context, group Group, key string, value any) error
	// Invalidate evicts every entry in each named group.
	Invalidate(ctx context.Context, groups ...Group) error
}
