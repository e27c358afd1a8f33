// Package record contains the entitlement-review record model.
package record

import (
	"fmt"
	"time"
)

// Criticality is the risk classification of an entitlement.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// Status is the lifecycle state of the account holding the entitlement.
type Status string

const (
	// StatusActive is a normal, in-use account.
	StatusActive Status = "active"
	// StatusOrphaned is an account with no known owner (e.g. the user left
	// but the account was never cleaned up).
	StatusOrphaned Status = "orphaned"
	// StatusTerminated is an account belonging to a terminated user.
	StatusTerminated Status = "terminated"
)

// Grant describes how the access was granted.
type Grant string

const (
	// GrantStanding is permanent access with no expiry.
	GrantStanding Grant = "standing"
	// GrantTimebound is access granted until an expiry date.
	GrantTimebound Grant = "timebound"
)

// Record is one normalized entitlement-review row.
//
// LastUsed and ExpiresAt are pointers because "unknown" is a distinct state:
// a record with no last-used date must not behave like one last used at the
// zero time. Nil means unknown and makes date-based rule conditions not match.
type Record struct {
	// User is the identifier of the user holding the entitlement.
	User string `json:"user" validate:"required"`
	// Entitlement is the identifier of the entitlement or role.
	Entitlement string `json:"entitlement" validate:"required"`
	// LastUsed is the date the entitlement was last exercised, if known.
	LastUsed *time.Time `json:"last_used,omitempty"`
	// Criticality is the risk level of the entitlement.
	Criticality Criticality `json:"criticality" validate:"criticality"`
	// Status is the account lifecycle state.
	Status Status `json:"status" validate:"account_status"`
	// Grant is standing or timebound access.
	Grant Grant `json:"grant" validate:"grant_type"`
	// ExpiresAt is the expiry date for timebound grants, if known.
	ExpiresAt *time.Time `json:"expires,omitempty"`
	// Manager is the identifier of the user's manager, if known.
	Manager string `json:"manager,omitempty"`
	// Owner is the identifier of the entitlement owner, if known.
	Owner string `json:"owner,omitempty"`
	// ApprovalOnFile reports whether a standing approval exists for this grant.
	ApprovalOnFile bool `json:"approval_on_file"`
}

// Key returns the batch-unique identity of the record.
func (r Record) Key() string {
	return r.User + "\x00" + r.Entitlement
}

// LastUsedDays returns the number of whole days between the last-used date
// and asOf. The second return is false when the last-used date is unknown.
func (r Record) LastUsedDays(asOf time.Time) (int, bool) {
	if r.LastUsed == nil {
		return 0, false
	}
	return daysBetween(*r.LastUsed, asOf), true
}

// TimeboundDaysLeft returns the number of whole days until the expiry date
// (negative once expired). The second return is false for standing grants or
// when the expiry date is unknown.
func (r Record) TimeboundDaysLeft(asOf time.Time) (int, bool) {
	if r.Grant != GrantTimebound || r.ExpiresAt == nil {
		return 0, false
	}
	return daysBetween(asOf, *r.ExpiresAt), true
}

// daysBetween counts whole calendar days from a to b in UTC. Negative when b
// precedes a.
func daysBetween(a, b time.Time) int {
	ad := a.UTC().Truncate(24 * time.Hour)
	bd := b.UTC().Truncate(24 * time.Hour)
	return int(bd.Sub(ad) / (24 * time.Hour))
}

// dateFormats are the calendar formats accepted for last_used and expires.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
}

// ParseDate parses a date in one of the accepted formats. An empty or
// unparseable value returns (nil, false): the date is treated as unknown
// rather than failing the row, so a bad date degrades to "field absent" in
// rule matching instead of aborting the batch.
func ParseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// ValidationError reports a malformed or incomplete input record. The run
// aborts on the first one: silently dropping rows would misstate
// certification coverage.
type ValidationError struct {
	// Row is the 1-based data row number in the input file, 0 if unknown.
	Row int
	// Field is the offending field name, empty for row-level problems.
	Field string
	// Msg describes the problem.
	Msg string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Row > 0 && e.Field != "":
		return fmt.Sprintf("row %d: field %q: %s", e.Row, e.Field, e.Msg)
	case e.Row > 0:
		return fmt.Sprintf("row %d: %s", e.Row, e.Msg)
	default:
		return e.Msg
	}
}
