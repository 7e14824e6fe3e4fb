package relay

import (
	"context"
	"log"
	"regexp"
	"time"

	"github.com/stellartrade/order-relay/internal/chat"
)

// ChatHistory provides the channel messages scanned for thread markers.
type ChatHistory interface {
	History(ctx context.Context) ([]chat.Message, error)
}

// Resolver locates the chat thread that corresponds to an order by
// scanning channel history for the marker grammar "<prefix> #<digits>".
type Resolver struct {
	history ChatHistory
	cache   *ThreadCache
	marker  *regexp.Regexp
}

// NewResolver creates a resolver for the given marker prefix
// (case-insensitive, word-bounded, e.g. "ST.order").
func NewResolver(history ChatHistory, cache *ThreadCache, markerPrefix string) *Resolver {
	return &Resolver{
		history: history,
		cache:   cache,
		marker:  regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(markerPrefix) + `\s+#(\d+)\b`),
	}
}

// Resolve returns the thread handle for the order, consulting the cache
// before scanning channel history. A history fetch error counts as "no
// match this attempt" so callers can keep retrying.
func (r *Resolver) Resolve(ctx context.Context, orderKey string) (string, bool) {
	if handle, ok := r.cache.Get(orderKey); ok {
		return handle, true
	}

	messages, err := r.history.History(ctx)
	if err != nil {
		log.Printf("History scan for order %s failed: %v", orderKey, err)
		return "", false
	}

	for _, m := range messages {
		if r.matchesOrder(m.Text, orderKey) {
			r.cache.Put(orderKey, m.Handle)
			return m.Handle, true
		}
	}
	return "", false
}

// ResolveWithTimeout rescans every pollInterval until the thread appears
// or maxWait elapses. The upstream channel message may be posted shortly
// after order creation, racing the worker's start.
func (r *Resolver) ResolveWithTimeout(ctx context.Context, orderKey string, maxWait, pollInterval time.Duration) (string, bool) {
	deadline := time.Now().Add(maxWait)
	for {
		if handle, ok := r.Resolve(ctx, orderKey); ok {
			return handle, true
		}
		if !time.Now().Before(deadline) {
			return "", false
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(pollInterval):
		}
	}
}

// matchesOrder requires the digit run in the marker to equal orderKey
// exactly; "#12345" never matches order 1234 and "#123" never matches
// order 12.
func (r *Resolver) matchesOrder(text, orderKey string) bool {
	for _, match := range r.marker.FindAllStringSubmatch(text, -1) {
		if match[1] == orderKey {
			return true
		}
	}
	return false
}
