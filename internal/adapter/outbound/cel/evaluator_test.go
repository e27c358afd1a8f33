package cel

import (
	"strings"
	"testing"
	"time"

	"github.com/certward/certward/internal/domain/record"
)

func testRecord(t *testing.T) record.Record {
	t.Helper()
	lastUsed, _ := time.Parse("2006-01-02", "2026-04-27")
	return record.Record{
		User:        "alice",
		Entitlement: "PAYMENTS_APPROVER",
		LastUsed:    &lastUsed,
		Criticality: record.CriticalityMedium,
		Status:      record.StatusActive,
		Grant:       record.GrantStanding,
	}
}

func asOf(t *testing.T) time.Time {
	t.Helper()
	d, _ := time.Parse("2006-01-02", "2026-08-25")
	return d
}

func TestEvaluateConditions(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	rec := testRecord(t)
	activation := BuildActivation(rec, []string{"PAYMENTS_REQUESTER"}, asOf(t))

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"status match", `status == "active"`, true},
		{"status non-match", `status == "terminated"`, false},
		{"last used threshold", `last_used_days > 90`, true},
		{"criticality", `criticality == "critical"`, false},
		{"peer membership", `"PAYMENTS_REQUESTER" in peer_entitlements`, true},
		{"peer non-membership", `"DEPLOY_PROD" in peer_entitlements`, false},
		{"boolean field", `approval_on_file`, false},
		{"compound", `status == "active" && last_used_days > 90 && criticality != "critical"`, true},
		{"expired with unknown days", `expired(timebound_days_left, 7)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := e.Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.expr, err)
			}
			got, err := e.Evaluate(prg, activation)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateUnknownFieldErrors(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	// No last-used date: the variable is bound as null and a comparison
	// against it must error rather than silently match.
	rec := testRecord(t)
	rec.LastUsed = nil
	activation := BuildActivation(rec, nil, asOf(t))

	prg, err := e.Compile(`last_used_days > 90`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := e.Evaluate(prg, activation); err == nil {
		t.Fatal("expected evaluation error for comparison against unknown field")
	}
}

func TestExpiredFunction(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	expires, _ := time.Parse("2006-01-02", "2026-08-10") // 15 days before asOf
	rec := testRecord(t)
	rec.Grant = record.GrantTimebound
	rec.ExpiresAt = &expires
	activation := BuildActivation(rec, nil, asOf(t))

	tests := []struct {
		expr string
		want bool
	}{
		{`expired(timebound_days_left, 7)`, true},
		{`expired(timebound_days_left, 30)`, false},
	}
	for _, tt := range tests {
		prg, err := e.Compile(tt.expr)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.expr, err)
		}
		got, err := e.Evaluate(prg, activation)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Fatalf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestValidateExpression(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"valid", `status == "active"`, false},
		{"empty", ``, true},
		{"syntax error", `status ==`, true},
		{"unknown variable", `flavor == "vanilla"`, true},
		{"too long", strings.Repeat("true && ", 200) + "true", true},
		{"nesting too deep", strings.Repeat("(", 60) + "true" + strings.Repeat(")", 60), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateExpression(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateExpression(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}
