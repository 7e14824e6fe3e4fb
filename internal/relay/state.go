package relay

import "sync"

// ThreadCache maps an order key to its resolved chat thread handle.
// Entries are written once by the worker owning the key and never evicted;
// the service is memory-resident by design and resets on restart.
type ThreadCache struct {
	mu      sync.RWMutex
	threads map[string]string
}

func NewThreadCache() *ThreadCache {
	return &ThreadCache{
		threads: make(map[string]string),
	}
}

func (c *ThreadCache) Get(orderKey string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.threads[orderKey]
	return handle, ok
}

func (c *ThreadCache) Put(orderKey, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threads[orderKey] = handle
}

// DeliveryTracker records the version token of the last comment delivered
// per order. Last-write-wins: only the most recent delivery is remembered,
// so an older token reappearing after a newer one counts as new again.
// The feed is expected reverse-chronological, which makes that acceptable.
type DeliveryTracker struct {
	mu   sync.RWMutex
	last map[string]string
}

func NewDeliveryTracker() *DeliveryTracker {
	return &DeliveryTracker{
		last: make(map[string]string),
	}
}

// IsNew reports whether the comment version differs from the last one
// delivered for the order. Unseen orders are always new.
func (t *DeliveryTracker) IsNew(orderKey, occurredAt string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	last, ok := t.last[orderKey]
	return !ok || last != occurredAt
}

// MarkDelivered overwrites the last-delivered version for the order.
func (t *DeliveryTracker) MarkDelivered(orderKey, occurredAt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[orderKey] = occurredAt
}
