package service

import "github.com/certward/certward/internal/domain/rule"

// resolve reduces the collected contributions to a final outcome and the
// rationale that produced it.
//
// Precedence is fixed: Flag beats Revoke beats Approve. Once any rule raises
// a record for human judgment, no amount of matching Approve or Revoke rules
// overrides that; Revoke likewise is never merged away into Approve. With no
// contributions at all, the configured default outcome applies, and without
// one the record falls back to Flag: an unevaluated record is never silently
// approved.
//
// The rationale lists every contributing rule label in evaluation (priority)
// order, not only those agreeing with the final outcome, so a reviewer sees
// the full picture.
func resolve(contribs []contribution, def *rule.Default) (rule.Outcome, []string) {
	if len(contribs) == 0 {
		if def != nil {
			label := def.Label
			if label == "" {
				label = rule.DefaultLabel
			}
			return def.Outcome, []string{label}
		}
		return rule.OutcomeFlag, []string{rule.FallbackLabel}
	}

	var hasFlag, hasRevoke bool
	rationale := make([]string, 0, len(contribs))
	for _, c := range contribs {
		rationale = append(rationale, c.label)
		switch c.outcome {
		case rule.OutcomeFlag:
			hasFlag = true
		case rule.OutcomeRevoke:
			hasRevoke = true
		}
	}

	switch {
	case hasFlag:
		return rule.OutcomeFlag, rationale
	case hasRevoke:
		return rule.OutcomeRevoke, rationale
	default:
		return rule.OutcomeApprove, rationale
	}
}
