package service

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/record"
)

// lruEntry is a doubly-linked list node for the LRU cache.
type lruEntry struct {
	key      uint64
	decision cert.Decision
	prev     *lruEntry
	next     *lruEntry
}

// decisionCache is a bounded LRU cache for evaluated decisions, keyed by a
// hash of the evaluation-relevant record fields and peer set. It pays off
// when the same records are evaluated more than once against one engine.
// Thread-safe with a Mutex since both Get and Put mutate LRU order.
type decisionCache struct {
	mu      sync.Mutex
	entries map[uint64]*lruEntry
	head    *lruEntry // most recently used
	tail    *lruEntry // least recently used
	maxSize int
}

// newDecisionCache creates an LRU cache with the given max size.
func newDecisionCache(maxSize int) *decisionCache {
	return &decisionCache{
		entries: make(map[uint64]*lruEntry, maxSize),
		maxSize: maxSize,
	}
}

// Get retrieves a cached decision. On hit, the entry is promoted to the head.
func (c *decisionCache) Get(key uint64) (cert.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.moveToHeadLocked(e)
		return e.decision, true
	}
	return cert.Decision{}, false
}

// Put stores a decision. At capacity, the least recently used entry is evicted.
func (c *decisionCache) Put(key uint64, decision cert.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.decision = decision
		c.moveToHeadLocked(e)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictTailLocked()
	}

	e := &lruEntry{key: key, decision: decision}
	c.entries[key] = e
	c.pushHeadLocked(e)
}

// Size returns the current cache size.
func (c *decisionCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// moveToHeadLocked moves an existing entry to the head. Lock must be held.
func (c *decisionCache) moveToHeadLocked(e *lruEntry) {
	if c.head == e {
		return
	}
	c.unlinkLocked(e)
	c.pushHeadLocked(e)
}

// pushHeadLocked inserts an entry at the head. Lock must be held.
func (c *decisionCache) pushHeadLocked(e *lruEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// unlinkLocked removes an entry from the linked list. Lock must be held.
func (c *decisionCache) unlinkLocked(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

// evictTailLocked removes the least recently used entry. Lock must be held.
func (c *decisionCache) evictTailLocked() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlinkLocked(c.tail)
}

// cacheKey hashes every field that can influence a decision: all evaluable
// record fields (conditions may reference any of them, user included), the
// derived day counts with their known/unknown state, and the sorted peer
// set. asOf is fixed per engine, so it needs no hashing; the derived day
// counts already reflect it.
func cacheKey(rec record.Record, peers []string, asOf time.Time) uint64 {
	h := xxhash.New()
	sep := []byte{0}

	_, _ = h.WriteString(rec.User)
	_, _ = h.Write(sep)
	_, _ = h.WriteString(rec.Entitlement)
	_, _ = h.Write(sep)
	_, _ = h.WriteString(string(rec.Status))
	_, _ = h.Write(sep)
	_, _ = h.WriteString(string(rec.Criticality))
	_, _ = h.Write(sep)
	_, _ = h.WriteString(string(rec.Grant))
	_, _ = h.Write(sep)
	_, _ = h.WriteString(rec.Manager)
	_, _ = h.Write(sep)
	_, _ = h.WriteString(rec.Owner)
	_, _ = h.Write(sep)
	_, _ = h.WriteString(strconv.FormatBool(rec.ApprovalOnFile))
	_, _ = h.Write(sep)

	lastUsed, lastUsedKnown := rec.LastUsedDays(asOf)
	writeDayCount(h, lastUsed, lastUsedKnown)
	timebound, timeboundKnown := rec.TimeboundDaysLeft(asOf)
	writeDayCount(h, timebound, timeboundKnown)

	sorted := slices.Clone(peers)
	slices.Sort(sorted)
	for _, p := range sorted {
		_, _ = h.WriteString(p)
		_, _ = h.Write(sep)
	}

	return h.Sum64()
}

func writeDayCount(h *xxhash.Digest, days int, known bool) {
	if known {
		_, _ = h.WriteString(strconv.Itoa(days))
	} else {
		_, _ = h.WriteString("unknown")
	}
	_, _ = h.Write([]byte{0})
}
