// Package cache provides an exact-match prompt cache policy for the
// middleware pipeline, with TTL expiry and capacity-bounded eviction.
// Keying is exact string equality on the prompt text; there is no
// normalization or semantic matching, no distribution, and no persistence
// across process restarts.
package cache

import (
	"time"

	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// entry is a cached completion. Both the map key (prompt) and the text are
// independent owned copies, never aliases of caller-supplied buffers; Go
// string semantics give us that for free on insert.
type entry struct {
	text     string
	storedAt time.Time
}

// PromptCache caches completion text by exact prompt, implementing both
// phases of the pipeline in a two-phase protocol:
//
// Request phase: a fresh hit stores the payload into the call context,
// cancels the call (so the model adapter is never invoked), and clears the
// pending-key slot. An expired hit is purged and treated as a miss. A miss
// records the prompt into the pending-key slot and lets the call proceed.
//
// Response phase: when a pending key is set and the response carries text,
// the cache first sweeps every expired entry, then evicts the single oldest
// entry if still at capacity, then inserts a fresh entry and clears the
// pending key. With no pending key or no text this phase is a no-op.
//
// A PromptCache holds exactly one in-flight pending-key slot on the instance,
// not per call. It is NOT internally synchronized: one instance serving
// overlapping calls can clobber its own pending key. Share an instance only
// behind external serialization, or use one instance per concurrent caller.
type PromptCache struct {
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int

	pendingKey string
	hasPending bool

	stats CacheStats

	now func() time.Time
}

// CacheStats tracks cache effectiveness counters
type CacheStats struct {
	// Hits is the number of fresh lookups answered from the cache
	Hits int64

	// Misses is the number of lookups that fell through to the provider
	Misses int64

	// Evictions is the number of entries removed to stay within capacity
	Evictions int64

	// Expirations is the number of entries purged past their TTL
	Expirations int64
}

// NewPromptCache creates a cache holding at most maxEntries completions,
// each valid for ttl after insertion
func NewPromptCache(ttl time.Duration, maxEntries int) *PromptCache {
	return &PromptCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// ProcessRequest implements pipeline.RequestMiddleware (lookup phase)
func (c *PromptCache) ProcessRequest(ctx *pipeline.CallContext, req *types.Request) error {
	prompt := req.Prompt

	if e, ok := c.entries[prompt]; ok {
		if c.now().Sub(e.storedAt) <= c.ttl {
			c.stats.Hits++
			ctx.SetCacheHit(&pipeline.CacheHit{Text: e.text})
			ctx.Cancel()
			c.clearPending()
			return nil
		}

		// Stale: purge rather than return, and fall through as a miss
		delete(c.entries, prompt)
		c.stats.Expirations++
	}

	c.stats.Misses++
	c.pendingKey = prompt
	c.hasPending = true
	return nil
}

// ProcessResponse implements pipeline.ResponseMiddleware (populate phase)
func (c *PromptCache) ProcessResponse(ctx *pipeline.CallContext, resp *types.Response) error {
	if !c.hasPending || resp == nil || resp.Text == "" {
		return nil
	}

	now := c.now()

	for key, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, key)
			c.stats.Expirations++
		}
	}

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[c.pendingKey] = entry{text: resp.Text, storedAt: now}
	c.clearPending()
	return nil
}

// evictOldest removes the entry with the smallest insertion timestamp.
// Ties are broken by map iteration order.
func (c *PromptCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	found := false

	for key, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			found = true
		}
	}

	if found {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

// clearPending clears the pending-key slot
func (c *PromptCache) clearPending() {
	c.pendingKey = ""
	c.hasPending = false
}

// Len returns the number of stored entries, counting expired ones that have
// not been swept yet
func (c *PromptCache) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters
func (c *PromptCache) Stats() CacheStats {
	return c.stats
}

// Clear releases every stored entry and the pending-key slot.
// The counters are kept.
func (c *PromptCache) Clear() {
	c.entries = make(map[string]entry)
	c.clearPending()
}

// Close releases all cache state. The cache must not be used afterwards.
func (c *PromptCache) Close() {
	c.entries = nil
	c.clearPending()
}
