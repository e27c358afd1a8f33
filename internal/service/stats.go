package service

import (
	"sync/atomic"

	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/rule"
)

// outcomeStats tracks per-outcome decision counts with lock-free atomic
// counters, safe for concurrent use from the worker pool.
type outcomeStats struct {
	approve atomic.Int64
	revoke  atomic.Int64
	flag    atomic.Int64
}

// Record increments the counter for the given outcome.
func (s *outcomeStats) Record(o rule.Outcome) {
	switch o {
	case rule.OutcomeApprove:
		s.approve.Add(1)
	case rule.OutcomeRevoke:
		s.revoke.Add(1)
	case rule.OutcomeFlag:
		s.flag.Add(1)
	}
}

// Counts returns a snapshot of the counters.
func (s *outcomeStats) Counts() cert.Counts {
	return cert.Counts{
		Approve: int(s.approve.Load()),
		Revoke:  int(s.revoke.Load()),
		Flag:    int(s.flag.Load()),
	}
}
