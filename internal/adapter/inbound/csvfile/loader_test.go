package csvfile

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/certward/certward/internal/domain/record"
)

func testLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const validCSV = `user,entitlement,last_used,criticality,status,grant,expires,manager,owner,approval_on_file
alice,PAYMENTS_APPROVER,2026-04-27,medium,active,standing,,m001,o001,true
alice,PAYMENTS_REQUESTER,2026-08-01,low,active,standing,,m001,o001,false
bob,DEPLOY_PROD,,high,active,timebound,2026-09-30,m002,o002,true
`

func TestReadValid(t *testing.T) {
	records, err := testLoader().Read(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.User != "alice" || first.Entitlement != "PAYMENTS_APPROVER" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.LastUsed == nil || first.LastUsed.Format("2006-01-02") != "2026-04-27" {
		t.Fatalf("LastUsed = %v", first.LastUsed)
	}
	if !first.ApprovalOnFile {
		t.Fatal("approval_on_file not parsed")
	}

	// Empty last_used stays unknown, not zero.
	if records[2].LastUsed != nil {
		t.Fatalf("empty last_used parsed as %v", records[2].LastUsed)
	}
	if records[2].ExpiresAt == nil {
		t.Fatal("expires not parsed")
	}
}

func TestReadColumnOrderIsFree(t *testing.T) {
	src := `status,user,criticality,entitlement
active,alice,low,GL_POSTING
`
	records, err := testLoader().Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if records[0].User != "alice" || records[0].Status != record.StatusActive {
		t.Fatalf("unexpected record: %+v", records[0])
	}
	// Missing optional grant column defaults to standing.
	if records[0].Grant != record.GrantStanding {
		t.Fatalf("Grant = %q, want standing", records[0].Grant)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantRow int
		wantMsg string
	}{
		{
			name:    "empty input",
			src:     "",
			wantMsg: "missing header",
		},
		{
			name:    "missing required column",
			src:     "user,criticality,status\nalice,low,active\n",
			wantMsg: "missing required column",
		},
		{
			name:    "missing user",
			src:     "user,entitlement,criticality,status\n,GL_POSTING,low,active\n",
			wantRow: 1,
			wantMsg: "missing required value",
		},
		{
			name:    "bad criticality",
			src:     "user,entitlement,criticality,status\nalice,GL_POSTING,severe,active\n",
			wantRow: 1,
			wantMsg: "invalid value",
		},
		{
			name: "duplicate user entitlement pair",
			src: "user,entitlement,criticality,status\n" +
				"alice,GL_POSTING,low,active\n" +
				"alice,GL_POSTING,low,active\n",
			wantRow: 2,
			wantMsg: "duplicate record",
		},
		{
			name:    "bad approval boolean",
			src:     "user,entitlement,criticality,status,approval_on_file\nalice,GL_POSTING,low,active,maybe\n",
			wantRow: 1,
			wantMsg: "invalid boolean",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testLoader().Read(strings.NewReader(tt.src))
			var verr *record.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v (%T), want *record.ValidationError", err, err)
			}
			if tt.wantRow != 0 && verr.Row != tt.wantRow {
				t.Fatalf("Row = %d, want %d", verr.Row, tt.wantRow)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not contain %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestReadBadDateDegradesToUnknown(t *testing.T) {
	src := "user,entitlement,last_used,criticality,status\nalice,GL_POSTING,soon,low,active\n"
	records, err := testLoader().Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if records[0].LastUsed != nil {
		t.Fatalf("unparseable date parsed as %v", records[0].LastUsed)
	}
}
