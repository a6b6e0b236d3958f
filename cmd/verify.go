package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdbport/mdbport/internal/sqlite"
	"github.com/mdbport/mdbport/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <reference-path> <candidate-path>",
	Short: "Compare a migrated SQLite database against a trusted reference",
	Long: `verify performs a case-insensitive structural and row-count comparison
between a reference database and a migrated candidate. The exit status is 0
when the databases are equivalent and non-zero when differences were found.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	refPath, candPath := args[0], args[1]
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("database not found at %s", path)
		}
	}

	ref, err := sqlite.OpenReadOnly(refPath)
	if err != nil {
		return err
	}
	defer ref.Close()
	cand, err := sqlite.OpenReadOnly(candPath)
	if err != nil {
		return err
	}
	defer cand.Close()

	ctx := cmd.Context()
	refSnap, err := verify.Snapshot(ctx, ref)
	if err != nil {
		return fmt.Errorf("reading reference schema: %w", err)
	}
	candSnap, err := verify.Snapshot(ctx, cand)
	if err != nil {
		return fmt.Errorf("reading candidate schema: %w", err)
	}

	fmt.Println("--- Comparing Databases ---")
	fmt.Printf("Reference: %s\n", refPath)
	fmt.Printf("Candidate: %s\n\n", candPath)

	report := verify.Compare(refSnap, candSnap)
	for _, finding := range report.Findings {
		fmt.Println(finding)
	}

	flagged := make(map[string]bool)
	for _, finding := range report.Findings {
		flagged[strings.ToLower(finding.Table)] = true
	}

	common := verify.CommonTables(refSnap, candSnap)
	fmt.Printf("\nCompared %d common tables.\n", len(common))
	for _, table := range common {
		if flagged[strings.ToLower(table)] {
			continue
		}
		if count, ok := candSnap.RowCount(table); ok {
			fmt.Printf("OK [%s]: schema and row count match (%d rows).\n", table, count)
		}
	}

	fmt.Println("\n--- Summary ---")
	if report.Passed() {
		fmt.Println("SUCCESS: The databases appear to be equivalent.")
		return nil
	}
	fmt.Printf("FAILURE: Found %d significant difference(s), %d warning(s).\n",
		report.Fatals(), report.Warnings())
	return fmt.Errorf("databases differ: %d error(s)", report.Fatals())
}
