// Package countcache memoizes collection totals. A cache entry is keyed by
// the entity and the exact filter arguments that narrowed the collection, so
// two requests differing only in their page window share one counted total.
package countcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Backend stores counted totals. Implementations must be safe for concurrent
// use. A Get miss is (0, false, nil); errors are reserved for backend
// failures, which the cache degrades around.
type Backend interface {
	Get(ctx context.Context, key string) (int, bool, error)
	Set(ctx context.Context, key string, count int, ttl time.Duration) error
}

// Cache wraps a backend with a fixed TTL and a compute-on-miss policy.
type Cache struct {
	backend Backend
	ttl     time.Duration
}

// New builds a cache over the backend. A non-positive ttl disables expiry
// only if the backend ignores it; the in-memory backend treats it as
// already-expired, so callers should pass a positive ttl.
func New(backend Backend, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl}
}

// GetOrCompute returns the cached total for key, computing and storing it on
// a miss. Backend failures never fail the request: a broken Get falls through
// to compute, and a broken Set is ignored. The hit result reports whether the
// value came from the cache.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (int, error)) (count int, hit bool, err error) {
	if c != nil && c.backend != nil {
		if cached, ok, getErr := c.backend.Get(ctx, key); getErr == nil && ok {
			return cached, true, nil
		}
	}
	count, err = compute(ctx)
	if err != nil {
		return 0, false, err
	}
	if c != nil && c.backend != nil {
		_ = c.backend.Set(ctx, key, count, c.ttl)
	}
	return count, false, nil
}

// Signature derives the cache key for a list field and the filter arguments
// that produced the collection. The scope must identify the declaring field,
// not just the entity: two fields over one entity may shape their base
// collections differently (hooks) and must not share totals. Arguments are
// serialized in sorted key order and each part is length-framed, so distinct
// inputs can never collide by concatenation.
func Signature(scope string, filterArgs map[string]interface{}) string {
	names := make([]string, 0, len(filterArgs))
	for name := range filterArgs {
		if filterArgs[name] == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, 1+2*len(names))
	parts = append(parts, scope)
	for _, name := range names {
		parts = append(parts, name, fmt.Sprintf("%v", filterArgs[name]))
	}
	return framedSHA256(parts...)
}

func framedSHA256(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(hash, "%d:%s|", len(part), part)
	}
	return hex.EncodeToString(hash.Sum(nil))
}

// MemoryBackend is an in-process TTL store. Expired entries are dropped
// lazily on read.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count   int
	expires time.Time
}

// NewMemoryBackend builds an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the stored count if present and unexpired.
func (b *MemoryBackend) Get(_ context.Context, key string) (int, bool, error) {
	b.mu.RLock()
	entry, ok := b.entries[key]
	b.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	if b.now().After(entry.expires) {
		b.mu.Lock()
		if current, still := b.entries[key]; still && current.expires.Equal(entry.expires) {
			delete(b.entries, key)
		}
		b.mu.Unlock()
		return 0, false, nil
	}
	return entry.count, true, nil
}

// Set stores the count for ttl from now.
func (b *MemoryBackend) Set(_ context.Context, key string, count int, ttl time.Duration) error {
	b.mu.Lock()
	b.entries[key] = memoryEntry{count: count, expires: b.now().Add(ttl)}
	b.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
