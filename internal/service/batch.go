package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/record"
)

// PeerIndex is the read-only user -> entitlements index built once per batch
// for SoD lookups. Entitlement lists are sorted so evaluation order never
// depends on input order.
type PeerIndex map[string][]string

// BuildPeerIndex indexes every entitlement held by each user in the batch.
func BuildPeerIndex(records []record.Record) PeerIndex {
	idx := make(PeerIndex)
	for _, r := range records {
		idx[r.User] = append(idx[r.User], r.Entitlement)
	}
	for user := range idx {
		sort.Strings(idx[user])
	}
	return idx
}

// Peers returns the entitlements held by user other than own. (user, own) is
// unique within a batch, so exactly one occurrence is dropped.
func (idx PeerIndex) Peers(user, own string) []string {
	all := idx[user]
	if len(all) == 0 {
		return nil
	}
	peers := make([]string, 0, len(all)-1)
	dropped := false
	for _, e := range all {
		if !dropped && e == own {
			dropped = true
			continue
		}
		peers = append(peers, e)
	}
	return peers
}

// Runner drives the engine over a whole batch of records.
//
// Every record's decision is independent given the precomputed peer index, so
// records are evaluated by a bounded worker pool. Each worker writes into a
// pre-allocated slot indexed by record position, which keeps the output order
// deterministic regardless of scheduling.
type Runner struct {
	engine  *Engine
	workers int
	logger  *slog.Logger
}

// NewRunner creates a batch runner. workers <= 0 means GOMAXPROCS.
func NewRunner(engine *Engine, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{engine: engine, workers: workers, logger: logger}
}

// Run evaluates all records and assembles the immutable batch result.
// source is recorded in the result for report provenance. Cancellation of ctx
// aborts the whole run; there is no partial result.
func (r *Runner) Run(ctx context.Context, records []record.Record, source string) (cert.BatchResult, error) {
	start := time.Now()
	peerIndex := BuildPeerIndex(records)
	decisions := make([]cert.Decision, len(records))
	var stats outcomeStats

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := records[i]
			d := r.engine.Evaluate(rec, peerIndex.Peers(rec.User, rec.Entitlement))
			decisions[i] = d
			stats.Record(d.Outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cert.BatchResult{}, fmt.Errorf("batch evaluation aborted: %w", err)
	}

	counts := stats.Counts()
	result := cert.BatchResult{
		RunID:          uuid.New().String(),
		GeneratedAt:    time.Now().UTC(),
		AsOf:           r.engine.AsOf(),
		Source:         source,
		Total:          len(records),
		Counts:         counts,
		AutomationRate: automationRate(counts),
		Duration:       time.Since(start),
		Decisions:      decisions,
	}

	r.logger.Info("batch evaluation complete",
		"run_id", result.RunID,
		"total", result.Total,
		"approve", counts.Approve,
		"revoke", counts.Revoke,
		"flag", counts.Flag,
		"automation_rate", result.AutomationRate,
		"duration", result.Duration,
	)

	return result, nil
}

// automationRate is (approve + revoke) / total, zero for an empty batch.
func automationRate(c cert.Counts) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Approve+c.Revoke) / float64(total)
}
