package push

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store persists push subscriptions keyed by endpoint. Add must be
// idempotent by endpoint and Remove of an unknown endpoint is a no-op.
type Store interface {
	Add(ctx context.Context, sub Subscription) error
	List(ctx context.Context) ([]Subscription, error)
	Remove(ctx context.Context, endpoint string) error
}

type memoryEntry struct {
	sub Subscription
	seq uint64
}

// MemoryStore keeps subscriptions in process memory. Contents are lost on
// restart.
type MemoryStore struct {
	items *cache.Cache
	seq   atomic.Uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

// Add stores sub unless its endpoint is already present. A subscription
// with an expiration time is evicted once it passes; one that has already
// expired is not stored.
func (m *MemoryStore) Add(_ context.Context, sub Subscription) error {
	ttl := cache.NoExpiration
	if exp, ok := expiresAt(sub.ExpirationTime); ok {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return nil
		}
	}
	entry := memoryEntry{sub: sub, seq: m.seq.Add(1)}
	// cache.Add fails when a live entry exists under the key.
	_ = m.items.Add(sub.Endpoint, entry, ttl)
	return nil
}

// List returns live subscriptions in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]Subscription, error) {
	m.items.DeleteExpired()
	items := m.items.Items()
	entries := make([]memoryEntry, 0, len(items))
	for _, it := range items {
		if e, ok := it.Object.(memoryEntry); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	subs := make([]Subscription, len(entries))
	for i, e := range entries {
		subs[i] = e.sub
	}
	return subs, nil
}

// Remove deletes the subscription for endpoint.
func (m *MemoryStore) Remove(_ context.Context, endpoint string) error {
	m.items.Delete(endpoint)
	return nil
}

// Clear drops every subscription.
func (m *MemoryStore) Clear() {
	m.items.Flush()
}

// expiresAt converts the browser's millisecond expiration into a time.
func expiresAt(ms *int64) (time.Time, bool) {
	if ms == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*ms), true
}
