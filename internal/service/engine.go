// Package service contains the certification application services: the rule
// evaluation engine and the batch runner that drives it.
package service

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/cel-go/cel"

	celeval "github.com/certward/certward/internal/adapter/outbound/cel"
	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/record"
	"github.com/certward/certward/internal/domain/rule"
)

// compiledRule is a policy rule with its condition programs compiled, ready
// for evaluation.
type compiledRule struct {
	name     string
	priority int
	index    int // declaration order, breaks priority ties
	when     cel.Program
	unless   cel.Program // nil when the rule has no exception guard
	outcome  rule.Outcome
}

// contribution is one rule's vote on a record, collected during the
// evaluation pass and reduced afterwards by resolve.
type contribution struct {
	label   string
	outcome rule.Outcome
}

// Engine evaluates entitlement records against a compiled rule set.
//
// Construction validates and compiles every condition once; Evaluate is a
// pure function of the record, its peer entitlements, and the immutable
// compiled snapshot, so it is safe for concurrent use.
type Engine struct {
	evaluator *celeval.Evaluator
	rules     []compiledRule            // sorted by (priority asc, declaration order)
	sodIndex  map[string][]rule.SoDPair // entitlement -> pairs referencing it
	def       *rule.Default
	asOf      time.Time
	cache     *decisionCache // nil when caching is disabled
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCacheSize enables the bounded decision cache for callers that evaluate
// the same records repeatedly (e.g. iterating on a rules file against a fixed
// dataset). Zero or negative disables caching.
func WithCacheSize(size int) EngineOption {
	return func(e *Engine) {
		if size > 0 {
			e.cache = newDecisionCache(size)
		}
	}
}

// NewEngine validates the rule set, compiles every condition, and returns an
// engine pinned to the given reference date. Day counts in conditions are
// relative to asOf, so two runs over the same inputs with the same asOf are
// identical.
func NewEngine(set *rule.Set, asOf time.Time, logger *slog.Logger, opts ...EngineOption) (*Engine, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	evaluator, err := celeval.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	e := &Engine{
		evaluator: evaluator,
		sodIndex:  buildSoDIndex(set.SoD),
		def:       set.Default,
		asOf:      asOf.UTC(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.rules, err = e.compileRules(set.Rules)
	if err != nil {
		return nil, err
	}

	logger.Info("certification engine initialized",
		"rules_compiled", len(e.rules),
		"sod_pairs", len(set.SoD),
		"default_outcome", defaultOutcomeLabel(set.Default),
		"as_of", e.asOf.Format("2006-01-02"),
	)

	return e, nil
}

// AsOf returns the reference date the engine computes day counts against.
func (e *Engine) AsOf() time.Time {
	return e.asOf
}

// compileRules validates and compiles every When/Unless expression and sorts
// the result by priority, keeping declaration order for equal priorities.
func (e *Engine) compileRules(rules []rule.Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))

	for i, r := range rules {
		if err := e.evaluator.ValidateExpression(r.When); err != nil {
			return nil, &rule.ConfigError{Rule: r.Name, Msg: fmt.Sprintf("condition: %v", err)}
		}
		when, err := e.evaluator.Compile(r.When)
		if err != nil {
			return nil, &rule.ConfigError{Rule: r.Name, Msg: fmt.Sprintf("condition: %v", err)}
		}

		var unless cel.Program
		if r.Unless != "" {
			if err := e.evaluator.ValidateExpression(r.Unless); err != nil {
				return nil, &rule.ConfigError{Rule: r.Name, Msg: fmt.Sprintf("exception: %v", err)}
			}
			unless, err = e.evaluator.Compile(r.Unless)
			if err != nil {
				return nil, &rule.ConfigError{Rule: r.Name, Msg: fmt.Sprintf("exception: %v", err)}
			}
		}

		compiled = append(compiled, compiledRule{
			name:     r.Name,
			priority: r.Priority,
			index:    i,
			when:     when,
			unless:   unless,
			outcome:  r.Outcome,
		})
	}

	sort.Slice(compiled, func(i, j int) bool {
		if compiled[i].priority != compiled[j].priority {
			return compiled[i].priority < compiled[j].priority
		}
		return compiled[i].index < compiled[j].index
	})

	return compiled, nil
}

// buildSoDIndex maps each entitlement to the pairs that reference it, so the
// per-record SoD pass touches only relevant pairs.
func buildSoDIndex(pairs []rule.SoDPair) map[string][]rule.SoDPair {
	idx := make(map[string][]rule.SoDPair, len(pairs)*2)
	for _, p := range pairs {
		idx[p.A] = append(idx[p.A], p)
		idx[p.B] = append(idx[p.B], p)
	}
	return idx
}

// Evaluate derives the certification decision for one record.
//
// peers is the set of other entitlement identifiers held by the same user in
// this batch; it is only consulted by SoD pairs. The rationale is never
// empty: an unmatched record gets the configured default outcome or the
// mandatory Flag fallback.
func (e *Engine) Evaluate(rec record.Record, peers []string) cert.Decision {
	var key uint64
	if e.cache != nil {
		key = cacheKey(rec, peers, e.asOf)
		if d, ok := e.cache.Get(key); ok {
			return d
		}
	}

	activation := celeval.BuildActivation(rec, peers, e.asOf)
	contribs := e.collect(rec, peers, activation)
	outcome, rationale := resolve(contribs, e.def)

	d := cert.Decision{
		User:        rec.User,
		Entitlement: rec.Entitlement,
		Outcome:     outcome,
		Rationale:   rationale,
		Auto:        outcome.Auto(),
	}

	if e.cache != nil {
		e.cache.Put(key, d)
	}
	return d
}

// collect runs the ordered evaluation pass: single-record rules in priority
// order, then SoD pairs. Exception guards suppress a matched rule before it
// can contribute.
func (e *Engine) collect(rec record.Record, peers []string, activation map[string]any) []contribution {
	var contribs []contribution

	for _, cr := range e.rules {
		matched, err := e.evaluator.Evaluate(cr.when, activation)
		if err != nil {
			// Post-validation the only runtime failure is an operation on an
			// unknown (null) field; field-absence means no match.
			e.logger.Debug("rule condition not evaluable, treating as non-match",
				"rule", cr.name, "user", rec.User, "entitlement", rec.Entitlement, "error", err)
			continue
		}
		if !matched {
			continue
		}
		if cr.unless != nil {
			excepted, err := e.evaluator.Evaluate(cr.unless, activation)
			if err != nil {
				e.logger.Debug("rule exception not evaluable, keeping contribution",
					"rule", cr.name, "user", rec.User, "entitlement", rec.Entitlement, "error", err)
			} else if excepted {
				continue
			}
		}
		contribs = append(contribs, contribution{label: cr.name, outcome: cr.outcome})
	}

	for _, p := range e.sodIndex[rec.Entitlement] {
		other := p.A
		if other == rec.Entitlement {
			other = p.B
		}
		if slices.Contains(peers, other) {
			contribs = append(contribs, contribution{label: p.Label(), outcome: rule.OutcomeFlag})
		}
	}

	return contribs
}

func defaultOutcomeLabel(def *rule.Default) string {
	if def == nil {
		return "none"
	}
	return string(def.Outcome)
}
