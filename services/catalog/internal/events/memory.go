package events

import (
	"context"
	"sync"
)

// MemoryPublisher records published events in order. Test implementation.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	// Fail, when set, makes every Publish return this error.
	Fail error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, ev Event) error {
	if p.Fail != nil {
		return p.Fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
