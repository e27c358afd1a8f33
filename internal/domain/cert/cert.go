// Package cert contains the certification output types: the per-record
// Decision and the aggregate BatchResult. Both are plain serialization-
// friendly structures; report writers own all formatting.
package cert

import (
	"time"

	"github.com/certward/certward/internal/domain/rule"
)

// Decision is the certification verdict for one entitlement record.
type Decision struct {
	// User and Entitlement identify the record.
	User        string `json:"user"`
	Entitlement string `json:"entitlement"`
	// Outcome is the final resolved verdict.
	Outcome rule.Outcome `json:"outcome"`
	// Rationale lists the labels of every rule that contributed, in priority
	// order. Never empty: an unmatched record carries the fallback label.
	Rationale []string `json:"rationale"`
	// Auto is true when the outcome was auto-decided (approve/revoke) and
	// false when the record needs human review (flag).
	Auto bool `json:"auto_decided"`
}

// Counts holds the per-outcome decision totals for one run.
type Counts struct {
	Approve int `json:"approve"`
	Revoke  int `json:"revoke"`
	Flag    int `json:"flag"`
}

// Total is the sum across outcomes.
func (c Counts) Total() int {
	return c.Approve + c.Revoke + c.Flag
}

// BatchResult is the aggregate output of one certification run. It is
// assembled once and immutable afterwards.
type BatchResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`
	// GeneratedAt is when the run finished (UTC).
	GeneratedAt time.Time `json:"generated_at"`
	// AsOf is the reference date day counts were computed against.
	AsOf time.Time `json:"as_of"`
	// Source is the base name of the input file.
	Source string `json:"source"`
	// Total is the number of records processed.
	Total int `json:"total"`
	// Counts are the per-outcome totals.
	Counts Counts `json:"counts"`
	// AutomationRate is (approve + revoke) / total, in [0, 1]. Zero for an
	// empty batch.
	AutomationRate float64 `json:"automation_rate"`
	// Duration is how long evaluation took.
	Duration time.Duration `json:"duration_ns"`
	// Decisions holds every decision in input order.
	Decisions []Decision `json:"decisions"`
}
