// Package rule contains the policy rule-set model for access certification.
//
// A rule set is loaded once per run and is immutable afterwards. Conditions
// are CEL expressions over record fields; structural validation happens here,
// expression compilation happens in the engine.
package rule

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Outcome is the certification verdict a rule contributes.
type Outcome string

const (
	// OutcomeApprove certifies the access as still appropriate.
	OutcomeApprove Outcome = "approve"
	// OutcomeRevoke certifies the access for removal.
	OutcomeRevoke Outcome = "revoke"
	// OutcomeFlag defers the record to a human reviewer.
	OutcomeFlag Outcome = "flag"
)

// Auto reports whether the outcome counts as auto-decided. Flag always needs
// a human.
func (o Outcome) Auto() bool {
	return o == OutcomeApprove || o == OutcomeRevoke
}

// Valid reports whether o is a recognized outcome kind.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApprove, OutcomeRevoke, OutcomeFlag:
		return true
	}
	return false
}

// Rule is one single-record policy rule.
type Rule struct {
	// Name uniquely identifies the rule and labels its rationale entries.
	Name string `yaml:"name"`
	// Priority orders evaluation: lower number = higher precedence. Ties are
	// broken by declaration order in the rule set.
	Priority int `yaml:"priority"`
	// When is the CEL condition over record fields that makes the rule match.
	When string `yaml:"when"`
	// Unless is an optional CEL exception guard. When it matches, the rule's
	// contribution is suppressed entirely before conflict resolution.
	Unless string `yaml:"unless,omitempty"`
	// Outcome is the verdict the rule contributes when it matches.
	Outcome Outcome `yaml:"outcome"`
}

// SoDPair names two entitlements that the same user must not hold together.
// A user holding both gets a Flag contribution on each of the two records.
type SoDPair struct {
	A string
	B string
}

// Label is the rationale text for a violated pair.
func (p SoDPair) Label() string {
	return fmt.Sprintf("SoD conflict: %s & %s", p.A, p.B)
}

// UnmarshalYAML decodes a pair from the two-element sequence form used in
// rules files: `- [PAYMENTS_APPROVER, PAYMENTS_REQUESTER]`.
func (p *SoDPair) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("sod_conflicts: expected [a, b] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("sod_conflicts: expected exactly 2 entitlements, got %d", len(pair))
	}
	p.A, p.B = pair[0], pair[1]
	return nil
}

// Default is the optional outcome applied when no rule matched a record.
// Without a configured default, an unmatched record falls back to Flag.
type Default struct {
	Outcome Outcome `yaml:"outcome"`
	// Label is the rationale text, e.g. "no policy violation".
	Label string `yaml:"label,omitempty"`
}

// Set is a parsed, validated policy rule set.
type Set struct {
	Version int     `yaml:"version"`
	Default *Default `yaml:"default,omitempty"`
	Rules   []Rule  `yaml:"rules"`
	// SoD holds the configured conflicting entitlement pairs.
	SoD []SoDPair `yaml:"sod_conflicts,omitempty"`
}

// ConfigError reports a structurally invalid rule set. Evaluation never
// starts with a bad rule set; a compliance tool must not guess.
type ConfigError struct {
	// Rule is the offending rule name, empty for set-level problems.
	Rule string
	// Msg describes the problem.
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Msg)
	}
	return e.Msg
}

// Validate checks the structural invariants of the rule set: recognized
// outcome kinds, unique non-empty rule names, non-empty conditions, and
// well-formed SoD pairs. Expression compilation is validated separately by
// the engine.
func (s *Set) Validate() error {
	names := make(map[string]struct{}, len(s.Rules))
	for _, r := range s.Rules {
		if r.Name == "" {
			return &ConfigError{Msg: "rule with empty name"}
		}
		if _, dup := names[r.Name]; dup {
			return &ConfigError{Rule: r.Name, Msg: "duplicate rule name"}
		}
		names[r.Name] = struct{}{}
		if r.When == "" {
			return &ConfigError{Rule: r.Name, Msg: "missing condition"}
		}
		if !r.Outcome.Valid() {
			return &ConfigError{Rule: r.Name, Msg: fmt.Sprintf("unknown outcome %q", r.Outcome)}
		}
	}

	if s.Default != nil && !s.Default.Outcome.Valid() {
		return &ConfigError{Msg: fmt.Sprintf("unknown default outcome %q", s.Default.Outcome)}
	}

	seen := make(map[string]struct{}, len(s.SoD))
	for _, p := range s.SoD {
		if p.A == "" || p.B == "" {
			return &ConfigError{Msg: "sod_conflicts: pair with empty entitlement"}
		}
		if p.A == p.B {
			return &ConfigError{Msg: fmt.Sprintf("sod_conflicts: %s conflicts with itself", p.A)}
		}
		key := pairKey(p.A, p.B)
		if _, dup := seen[key]; dup {
			return &ConfigError{Msg: fmt.Sprintf("sod_conflicts: duplicate pair %s & %s", p.A, p.B)}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// pairKey is an order-independent identity for a SoD pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// DefaultLabel is the rationale used for a configured default outcome when
// the rule set does not name one.
const DefaultLabel = "no policy violation"

// FallbackLabel is the fixed rationale for the mandatory Flag fallback when
// no rule matched and no default outcome is configured.
const FallbackLabel = "no matching policy rule - requires manual review"
