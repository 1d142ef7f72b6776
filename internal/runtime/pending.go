package runtime

import "sync"

// PendingRegistry tracks in-flight requests by key until they are answered,
// abandoned, or the owner closes.
type PendingRegistry[K comparable, T any] struct {
	mu        sync.Mutex
	pending   map[K]T
	closed    bool
	closedErr error
}

func NewPendingRegistry[K comparable, T any](closedErr error) *PendingRegistry[K, T] {
	return &PendingRegistry[K, T]{
		pending:   map[K]T{},
		closedErr: closedErr,
	}
}

func (registry *PendingRegistry[K, T]) Register(key K, value T) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.closed {
		return registry.closedErr
	}
	registry.pending[key] = value
	return nil
}

// Take removes and returns the entry for key.
func (registry *PendingRegistry[K, T]) Take(key K) (T, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	value, ok := registry.pending[key]
	if ok {
		delete(registry.pending, key)
	}
	return value, ok
}

func (registry *PendingRegistry[K, T]) Drop(key K) {
	registry.mu.Lock()
	delete(registry.pending, key)
	registry.mu.Unlock()
}

func (registry *PendingRegistry[K, T]) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.pending)
}

// Close rejects further registrations and returns whatever was still pending.
func (registry *PendingRegistry[K, T]) Close() []T {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.closed = true
	abandoned := make([]T, 0, len(registry.pending))
	for key, value := range registry.pending {
		abandoned = append(abandoned, value)
		delete(registry.pending, key)
	}
	return abandoned
}
