package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/certward/certward/internal/domain/cert"
	"github.com/certward/certward/internal/domain/rule"
)

// writeMarkdown renders the human-readable summary: run provenance,
// aggregate KPIs, and a sample of the decisions a reviewer has to act on.
func (w *Writer) writeMarkdown(path string, result cert.BatchResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Certification Report\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", result.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- As of: %s\n", result.AsOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Source: `%s`\n\n", result.Source)

	c := result.Counts
	autoCount := c.Approve + c.Revoke
	fmt.Fprintf(&b, "- Total entitlements: **%d**\n", result.Total)
	fmt.Fprintf(&b, "- Auto-decided (Approve/Revoke): **%d** (%.1f%%)\n", autoCount, result.AutomationRate*100)
	fmt.Fprintf(&b, "- Flagged for review: **%d** (%.1f%%)\n\n", c.Flag, rate(c.Flag, result.Total)*100)

	fmt.Fprintf(&b, "## Outcomes\n\n")
	fmt.Fprintf(&b, "| Outcome | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Approve | %d |\n", c.Approve)
	fmt.Fprintf(&b, "| Revoke | %d |\n", c.Revoke)
	fmt.Fprintf(&b, "| Flag | %d |\n\n", c.Flag)

	flagged := flaggedDecisions(result.Decisions, w.flaggedSamples)
	if len(flagged) > 0 {
		fmt.Fprintf(&b, "## Flagged for review\n\n")
		fmt.Fprintf(&b, "| User | Entitlement | Rationale |\n|---|---|---|\n")
		for _, d := range flagged {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", d.User, d.Entitlement, strings.Join(d.Rationale, "; "))
		}
		fmt.Fprintf(&b, "\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// flaggedDecisions returns up to limit flagged decisions in input order.
// limit <= 0 means all.
func flaggedDecisions(decisions []cert.Decision, limit int) []cert.Decision {
	var flagged []cert.Decision
	for _, d := range decisions {
		if d.Outcome != rule.OutcomeFlag {
			continue
		}
		flagged = append(flagged, d)
		if limit > 0 && len(flagged) == limit {
			break
		}
	}
	return flagged
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
