// Package csvfile loads entitlement-review records from a CSV file.
//
// Loading is fail-fast: the first malformed row aborts with a
// *record.ValidationError carrying the row number, before any evaluation
// starts. Silently skipping rows would misstate certification coverage.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/certward/certward/internal/domain/record"
)

// Required columns. Optional columns: last_used, grant, expires, manager,
// owner, approval_on_file.
var requiredColumns = []string{"user", "entitlement", "criticality", "status"}

// Loader reads and validates entitlement records.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a CSV record loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads all records from path. Column order is free; the header row
// names the columns. Returns every record validated, with (user, entitlement)
// uniqueness enforced across the batch.
func (l *Loader) Load(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entitlements file: %w", err)
	}
	defer f.Close()

	records, err := l.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses records from r. Exposed separately from Load for testing and
// for callers with non-file sources.
func (l *Loader) Read(r io.Reader) ([]record.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &record.ValidationError{Msg: "empty input: missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var records []record.Record
	seen := make(map[string]struct{})
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &record.ValidationError{Row: row, Msg: err.Error()}
		}

		rec, err := l.parseRow(cols, fields, row)
		if err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			var verr *record.ValidationError
			if errors.As(err, &verr) {
				verr.Row = row
				return nil, verr
			}
			return nil, err
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			return nil, &record.ValidationError{
				Row: row,
				Msg: fmt.Sprintf("duplicate record for user %q entitlement %q", rec.User, rec.Entitlement),
			}
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}

	return records, nil
}

// indexColumns maps column names to positions and checks the required set.
func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &record.ValidationError{
				Field: name,
				Msg:   "missing required column",
			}
		}
	}
	return cols, nil
}

// parseRow builds a Record from one CSV row. Unparseable dates degrade to
// unknown with a warning; a bad boolean is an error since defaulting an
// approval flag either way would change decisions silently.
func (l *Loader) parseRow(cols map[string]int, fields []string, row int) (record.Record, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := record.Record{
		User:        get("user"),
		Entitlement: get("entitlement"),
		Criticality: record.Criticality(strings.ToLower(get("criticality"))),
		Status:      record.Status(strings.ToLower(get("status"))),
		Grant:       record.Grant(strings.ToLower(get("grant"))),
		Manager:     get("manager"),
		Owner:       get("owner"),
	}
	if rec.Grant == "" {
		rec.Grant = record.GrantStanding
	}

	if raw := get("last_used"); raw != "" {
		t, ok := record.ParseDate(raw)
		if !ok {
			l.logger.Warn("unparseable last_used date, treating as unknown", "row", row, "value", raw)
		}
		rec.LastUsed = t
	}
	if raw := get("expires"); raw != "" {
		t, ok := record.ParseDate(raw)
		if !ok {
			l.logger.Warn("unparseable expires date, treating as unknown", "row", row, "value", raw)
		}
		rec.ExpiresAt = t
	}

	if raw := get("approval_on_file"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return record.Record{}, &record.ValidationError{
				Row:   row,
				Field: "approval_on_file",
				Msg:   fmt.Sprintf("invalid boolean %q", raw),
			}
		}
		rec.ApprovalOnFile = b
	}

	return rec, nil
}
