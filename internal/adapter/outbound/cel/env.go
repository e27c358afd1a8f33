// Package cel provides the CEL expression environment and evaluator for
// certification rule conditions.
package cel

import (
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/certward/certward/internal/domain/record"
)

// NewRecordEnvironment creates a CEL environment with one variable per
// entitlement-record field plus the peer-entitlement list:
//
//   - user, entitlement, status, criticality, grant, manager, owner: string
//   - approval_on_file: bool
//   - last_used_days, timebound_days_left: int, or null when unknown
//   - peer_entitlements: list of the other entitlements held by the same user
//
// The day-count variables are declared dyn so that a rules file can compare
// them while "unknown" stays representable as null. A comparison against null
// errors at evaluation time, which the engine treats as a non-match.
//
// Custom function:
//
//   - expired(timebound_days_left, grace_days): true when the day count is
//     known and more than grace_days past expiry. False on null.
func NewRecordEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),

		cel.Variable("user", cel.StringType),
		cel.Variable("entitlement", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("criticality", cel.StringType),
		cel.Variable("grant", cel.StringType),
		cel.Variable("manager", cel.StringType),
		cel.Variable("owner", cel.StringType),
		cel.Variable("approval_on_file", cel.BoolType),
		cel.Variable("last_used_days", cel.DynType),
		cel.Variable("timebound_days_left", cel.DynType),
		cel.Variable("peer_entitlements", cel.ListType(cel.StringType)),

		cel.Function("expired",
			cel.Overload("expired_dyn_int",
				[]*cel.Type{cel.DynType, cel.IntType},
				cel.BoolType,
				cel.BinaryBinding(func(days, grace ref.Val) ref.Val {
					d, ok := days.Value().(int64)
					if !ok {
						return types.Bool(false)
					}
					g, ok := grace.Value().(int64)
					if !ok {
						return types.Bool(false)
					}
					if g < 0 {
						g = -g
					}
					return types.Bool(d < -g)
				}),
			),
		),
	)
}

// BuildActivation maps a record (plus its peer entitlements and the run's
// reference date) to the CEL variable set. Unknown day counts are bound as
// nil, which CEL adapts to null.
func BuildActivation(rec record.Record, peers []string, asOf time.Time) map[string]any {
	if peers == nil {
		peers = []string{}
	}
	activation := map[string]any{
		"user":              rec.User,
		"entitlement":       rec.Entitlement,
		"status":            string(rec.Status),
		"criticality":       string(rec.Criticality),
		"grant":             string(rec.Grant),
		"manager":           rec.Manager,
		"owner":             rec.Owner,
		"approval_on_file":  rec.ApprovalOnFile,
		"peer_entitlements": peers,
	}

	if days, ok := rec.LastUsedDays(asOf); ok {
		activation["last_used_days"] = days
	} else {
		activation["last_used_days"] = nil
	}
	if days, ok := rec.TimeboundDaysLeft(asOf); ok {
		activation["timebound_days_left"] = days
	} else {
		activation["timebound_days_left"] = nil
	}

	return activation
}
