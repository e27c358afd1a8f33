package report

import (
	"encoding/json"
	"os"

	"github.com/certward/certward/internal/domain/cert"
)

// writeJSON dumps the whole batch result, decisions included, as indented
// JSON. This is the machine-readable artifact for downstream tooling.
func writeJSON(path string, result cert.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
