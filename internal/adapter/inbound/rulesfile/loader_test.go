package rulesfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/certward/certward/internal/domain/rule"
)

const validRules = `
version: 1
default:
  outcome: approve
  label: no policy violation
rules:
  - name: terminated-account
    priority: 10
    when: 'status == "terminated" || status == "orphaned"'
    outcome: revoke
  - name: stale-access
    priority: 20
    when: 'last_used_days > 90'
    unless: 'criticality == "critical"'
    outcome: revoke
sod_conflicts:
  - [PAYMENTS_APPROVER, PAYMENTS_REQUESTER]
`

func TestReadValid(t *testing.T) {
	set, err := Read(strings.NewReader(validRules))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(set.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(set.Rules))
	}
	if set.Rules[1].Unless == "" {
		t.Fatal("unless clause not parsed")
	}
	if set.Default == nil || set.Default.Outcome != rule.OutcomeApprove {
		t.Fatalf("default = %+v", set.Default)
	}
	if len(set.SoD) != 1 || set.SoD[0].A != "PAYMENTS_APPROVER" {
		t.Fatalf("sod = %+v", set.SoD)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"empty file", "", "empty rules file"},
		{"not yaml", "rules: [", "parse rules file"},
		{
			// A typo must not silently weaken the policy.
			name:    "unknown key rejected",
			src:     "rules:\n  - name: r\n    priority: 1\n    when: 'true'\n    outcom: revoke\n",
			wantMsg: "parse rules file",
		},
		{
			name:    "unknown outcome",
			src:     "rules:\n  - name: r\n    priority: 1\n    when: 'true'\n    outcome: escalate\n",
			wantMsg: "unknown outcome",
		},
		{
			name:    "sod self pair",
			src:     "sod_conflicts:\n  - [A, A]\n",
			wantMsg: "conflicts with itself",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			var cerr *rule.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("error = %v (%T), want *rule.ConfigError", err, err)
			}
			if !strings.Contains(cerr.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not contain %q", cerr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(validRules), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(set.Rules))
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
