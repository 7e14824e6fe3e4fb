package registry

import "sync"

// Registry tracks the set of order keys currently owned by a running relay
// worker. It is the sole admission gate: at most one worker holds a given
// order key at any instant.
type Registry struct {
	slots sync.Map // map[string]chan struct{}
}

// New creates a new registry
func New() *Registry {
	return &Registry{}
}

// TryAcquire attempts to claim the given order key.
// Returns true if the caller now owns the key, false if a worker is
// already running for it.
func (r *Registry) TryAcquire(orderKey string) bool {
	// Create or load a buffered channel of size 1 (semaphore pattern)
	actual, _ := r.slots.LoadOrStore(orderKey, make(chan struct{}, 1))
	slot := actual.(chan struct{})

	// Non-blocking send - succeeds only if the slot is empty
	select {
	case slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the order key.
// Safe to call even if the key was never acquired or was already released.
func (r *Registry) Release(orderKey string) {
	if actual, ok := r.slots.Load(orderKey); ok {
		slot := actual.(chan struct{})
		// Non-blocking receive
		select {
		case <-slot:
			// Successfully released
		default:
			// Already released or never acquired - safe to ignore
		}
	}
}
