package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/noteflow-ai/noteflow/core"
)

// CapabilityCache memoizes per-agent "can this agent handle this query"
// classifications so repeated dispatches do not re-issue model calls. It is
// an injected component with explicit bounds: LRU eviction plus a TTL, never
// unbounded process-lifetime growth.
//
// Keys fold in the agent ID, so two agents (or two coincidentally identical
// conversations routed to different agents) never leak decisions to each
// other. A given key always maps to the same computed value, so concurrent
// population races are harmless idempotent writes.
type CapabilityCache struct {
	lru *expirable.LRU[string, bool]
}

// NewCapabilityCache creates a cache holding up to size entries for at most
// ttl each. ttl <= 0 disables expiry, size <= 0 falls back to a default.
func NewCapabilityCache(size int, ttl time.Duration) *CapabilityCache {
	if size <= 0 {
		size = 1024
	}
	return &CapabilityCache{lru: expirable.NewLRU[string, bool](size, nil, ttl)}
}

// Key derives the cache key from the agent identity, the query and the last
// two history entries.
func Key(agentID, query string, history []core.Message) string {
	h := sha256.New()
	h.Write([]byte(agentID))
	h.Write([]byte{0})
	h.Write([]byte(query))
	for _, m := range core.LastN(history, 2) {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the memoized decision and whether it was present.
func (c *CapabilityCache) Get(key string) (bool, bool) {
	return c.lru.Get(key)
}

// Put stores a decision. Writes are idempotent for a given key.
func (c *CapabilityCache) Put(key string, canHandle bool) {
	c.lru.Add(key, canHandle)
}

// Len returns the current number of cached decisions.
func (c *CapabilityCache) Len() int { return c.lru.Len() }
