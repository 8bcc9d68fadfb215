package likes

import (
	"context"
	"sync"
)

// MemoryTracker is the development and test implementation.
type MemoryTracker struct {
	mu    sync.RWMutex
	liked map[string]struct{} // "userID:trackID"
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{liked: make(map[string]struct{})}
}

func (t *MemoryTracker) IsLiked(_ context.Context, userID, trackID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.liked[userID+":"+trackID]
	return ok, nil
}

func (t *MemoryTracker) SetLiked(_ context.Context, userID, trackID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.liked[userID+":"+trackID] = struct{}{}
	return nil
}

func (t *MemoryTracker) ClearLiked(_ context.Context, userID, trackID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.liked, userID+":"+trackID)
	return nil
}
