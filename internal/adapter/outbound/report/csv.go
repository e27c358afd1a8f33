package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/certward/certward/internal/domain/cert"
)

// csvHeader is the column layout of decisions.csv.
var csvHeader = []string{"user", "entitlement", "outcome", "rationale", "auto_decided"}

// writeCSV renders one row per decision, in input order. Rationale entries
// are joined with "; " to keep the file one-row-per-decision.
func writeCSV(path string, result cert.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range result.Decisions {
		row := []string{
			d.User,
			d.Entitlement,
			string(d.Outcome),
			strings.Join(d.Rationale, "; "),
			strconv.FormatBool(d.Auto),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
