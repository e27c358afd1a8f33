package cmd

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	genRows int
	genOut  string
	genSeed int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Synthesize a sample entitlements dataset",
	Long: `Generate a plausible entitlements CSV for demos and rule tuning. The
dataset mixes active, orphaned, and terminated accounts, stale and fresh
usage, timebound grants, and users holding conflicting entitlement pairs.

Output is deterministic for a given seed.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&genRows, "rows", 200, "number of records to generate")
	generateCmd.Flags().StringVar(&genOut, "out", "entitlements.csv", "output file")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 42, "random seed")
	rootCmd.AddCommand(generateCmd)
}

var (
	genEntitlements = []string{
		"PAYMENTS_APPROVER", "PAYMENTS_REQUESTER", "VENDOR_CREATE", "VENDOR_PAY",
		"GL_POSTING", "AR_ADMIN", "AP_CLERK", "HR_VIEW", "HR_ADMIN",
		"PROD_DB_READ", "PROD_DB_WRITE", "DEPLOY_PROD", "AUDIT_VIEW",
	}
	genCriticalities = []string{"low", "low", "medium", "medium", "high", "critical"}
	genStatuses      = []string{"active", "active", "active", "active", "orphaned", "terminated"}
)

func runGenerate(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewSource(genSeed))
	now := time.Now().UTC()

	f, err := os.Create(genOut)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"user", "entitlement", "last_used", "criticality", "status", "grant", "expires", "manager", "owner", "approval_on_file"}
	if err := w.Write(header); err != nil {
		return err
	}

	seen := make(map[string]struct{}, genRows)
	for written := 0; written < genRows; {
		user := fmt.Sprintf("u%04d", rng.Intn(genRows/2+1))
		ent := genEntitlements[rng.Intn(len(genEntitlements))]
		key := user + "\x00" + ent
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		// ~10% of rows have no usage data at all.
		lastUsed := ""
		if rng.Intn(10) != 0 {
			lastUsed = now.AddDate(0, 0, -rng.Intn(365)).Format("2006-01-02")
		}

		grant := "standing"
		expires := ""
		if rng.Intn(5) == 0 {
			grant = "timebound"
			// Some already expired, some still valid.
			expires = now.AddDate(0, 0, rng.Intn(120)-60).Format("2006-01-02")
		}

		row := []string{
			user,
			ent,
			lastUsed,
			genCriticalities[rng.Intn(len(genCriticalities))],
			genStatuses[rng.Intn(len(genStatuses))],
			grant,
			expires,
			fmt.Sprintf("m%03d", rng.Intn(40)),
			fmt.Sprintf("o%03d", rng.Intn(20)),
			strconv.FormatBool(rng.Intn(3) != 0),
		}
		if err := w.Write(row); err != nil {
			return err
		}
		written++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d records to %s\n", genRows, genOut)
	return nil
}
