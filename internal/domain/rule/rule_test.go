package rule

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func validSet() *Set {
	return &Set{
		Version: 1,
		Rules: []Rule{
			{Name: "terminated-account", Priority: 10, When: `status == "terminated"`, Outcome: OutcomeRevoke},
			{Name: "stale-access", Priority: 20, When: `last_used_days > 90`, Unless: `criticality == "critical"`, Outcome: OutcomeRevoke},
		},
		SoD: []SoDPair{{A: "PAYMENTS_APPROVER", B: "PAYMENTS_REQUESTER"}},
	}
}

func TestSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Set)
		wantErr string
	}{
		{"valid", func(s *Set) {}, ""},
		{"empty rule name", func(s *Set) { s.Rules[0].Name = "" }, "empty name"},
		{"duplicate rule name", func(s *Set) { s.Rules[1].Name = s.Rules[0].Name }, "duplicate rule name"},
		{"missing condition", func(s *Set) { s.Rules[0].When = "" }, "missing condition"},
		{"unknown outcome", func(s *Set) { s.Rules[0].Outcome = "escalate" }, "unknown outcome"},
		{"unknown default outcome", func(s *Set) { s.Default = &Default{Outcome: "keep"} }, "unknown default outcome"},
		{"sod self pair", func(s *Set) { s.SoD = append(s.SoD, SoDPair{A: "X", B: "X"}) }, "conflicts with itself"},
		{"sod empty entitlement", func(s *Set) { s.SoD = append(s.SoD, SoDPair{A: "X"}) }, "empty entitlement"},
		{"sod duplicate pair", func(s *Set) {
			s.SoD = append(s.SoD, SoDPair{A: "PAYMENTS_REQUESTER", B: "PAYMENTS_APPROVER"})
		}, "duplicate pair"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := validSet()
			tt.mutate(set)
			err := set.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if _, ok := err.(*ConfigError); !ok {
				t.Fatalf("Validate() error type = %T, want *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	if !OutcomeApprove.Auto() || !OutcomeRevoke.Auto() {
		t.Fatal("approve and revoke must count as auto-decided")
	}
	if OutcomeFlag.Auto() {
		t.Fatal("flag must not count as auto-decided")
	}
	if Outcome("escalate").Valid() {
		t.Fatal("unknown outcome reported valid")
	}
}

func TestSoDPairUnmarshalYAML(t *testing.T) {
	var set Set
	src := `
sod_conflicts:
  - [PAYMENTS_APPROVER, PAYMENTS_REQUESTER]
  - [VENDOR_CREATE, VENDOR_PAY]
`
	if err := yaml.Unmarshal([]byte(src), &set); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(set.SoD) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(set.SoD))
	}
	if set.SoD[0].A != "PAYMENTS_APPROVER" || set.SoD[0].B != "PAYMENTS_REQUESTER" {
		t.Fatalf("unexpected first pair: %+v", set.SoD[0])
	}

	var bad Set
	if err := yaml.Unmarshal([]byte("sod_conflicts:\n  - [ONLY_ONE]\n"), &bad); err == nil {
		t.Fatal("expected error for one-element pair")
	}
}

func TestSoDPairLabel(t *testing.T) {
	p := SoDPair{A: "A", B: "B"}
	if p.Label() != "SoD conflict: A & B" {
		t.Fatalf("Label() = %q", p.Label())
	}
}
