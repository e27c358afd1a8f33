package service

import (
	"testing"
	"time"

	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/record"
	"github.com/certward/certward/internal/domain/rule"
)

func cachedDecision(label string) cert.Decision {
	return cert.Decision{
		User:        "alice",
		Entitlement: "GL_POSTING",
		Outcome:     rule.OutcomeApprove,
		Rationale:   []string{label},
		Auto:        true,
	}
}

func TestDecisionCacheGetPut(t *testing.T) {
	c := newDecisionCache(2)

	if _, ok := c.Get(1); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Put(1, cachedDecision("one"))
	d, ok := c.Get(1)
	if !ok || d.Rationale[0] != "one" {
		t.Fatalf("Get(1) = (%+v, %v)", d, ok)
	}
}

func TestDecisionCacheEvictsLRU(t *testing.T) {
	c := newDecisionCache(2)
	c.Put(1, cachedDecision("one"))
	c.Put(2, cachedDecision("two"))

	// Touch 1 so 2 becomes least recently used.
	if _, ok := c.Get(1); !ok {
		t.Fatal("expected hit for 1")
	}
	c.Put(3, cachedDecision("three"))

	if _, ok := c.Get(2); ok {
		t.Fatal("LRU entry 2 should have been evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatal("recently used entry 1 was evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestDecisionCacheUpdateExisting(t *testing.T) {
	c := newDecisionCache(2)
	c.Put(1, cachedDecision("one"))
	c.Put(1, cachedDecision("updated"))

	d, ok := c.Get(1)
	if !ok || d.Rationale[0] != "updated" {
		t.Fatalf("Get(1) = (%+v, %v), want updated entry", d, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	asOf := testAsOf()
	rec := activeRecord()

	base := cacheKey(rec, nil, asOf)

	changed := rec
	changed.Status = record.StatusTerminated
	if cacheKey(changed, nil, asOf) == base {
		t.Fatal("status change did not change the key")
	}

	changed = rec
	changed.User = "bob"
	if cacheKey(changed, nil, asOf) == base {
		t.Fatal("user change did not change the key")
	}

	if cacheKey(rec, []string{"X"}, asOf) == base {
		t.Fatal("peer change did not change the key")
	}

	changed = rec
	changed.LastUsed = nil
	if cacheKey(changed, nil, asOf) == base {
		t.Fatal("unknown last-used did not change the key")
	}

	// Peer order must not matter: the index sorts, the key sorts too.
	if cacheKey(rec, []string{"A", "B"}, asOf) != cacheKey(rec, []string{"B", "A"}, asOf) {
		t.Fatal("peer order changed the key")
	}
}

func TestCacheKeyStable(t *testing.T) {
	asOf := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	rec := activeRecord()
	if cacheKey(rec, []string{"A"}, asOf) != cacheKey(rec, []string{"A"}, asOf) {
		t.Fatal("identical inputs produced different keys")
	}
}
