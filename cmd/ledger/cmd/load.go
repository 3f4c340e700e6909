package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vendor-ledger-service/cmd/ledger/config"
	"vendor-ledger-service/internal/cells"
	"vendor-ledger-service/internal/derive"
	"vendor-ledger-service/internal/state"
	lederrors "vendor-ledger-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the load command
var (
	loadFile        string
	creditNotesFile string
	asOfDate        string
	outputFormat    string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the ingestion pipeline over a spreadsheet and print a summary",
	Long: `Load runs the full pipeline once without starting the server: workbook
parse, header location, extraction with validity gates, reference lookups,
and optionally the credit-note merge. It prints a load summary and exits.

Useful for validating a new monthly export before uploading it.

Examples:
  ledger load --file "Outstanding Invoices.xlsx"
  ledger load --file invoices.xlsx --creditnotes notes.xlsx
  ledger load --file invoices.xlsx --as-of 2026-08-01 --output-format json`,

	PreRunE: validateLoadFlags,
	RunE:    runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "path to the primary spreadsheet (required)")
	loadCmd.Flags().StringVar(&creditNotesFile, "creditnotes", "", "path to a credit-note spreadsheet (optional)")
	loadCmd.Flags().StringVar(&asOfDate, "as-of", "", "overdue anchor date (YYYY-MM-DD, default today)")
	loadCmd.Flags().StringVarP(&outputFormat, "output-format", "o", "console", "output format: console, json")

	loadCmd.MarkFlagRequired("file")

	viper.BindPFlag("load.file", loadCmd.Flags().Lookup("file"))
	viper.BindPFlag("load.creditnotes", loadCmd.Flags().Lookup("creditnotes"))
}

func validateLoadFlags(cmd *cobra.Command, args []string) error {
	if outputFormat != "console" && outputFormat != "json" {
		return fmt.Errorf("invalid output format %q: must be console or json", outputFormat)
	}
	if asOfDate != "" {
		if _, err := time.Parse("2006-01-02", asOfDate); err != nil {
			return fmt.Errorf("invalid --as-of date %q: expected YYYY-MM-DD", asOfDate)
		}
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	layout, err := config.BuildLayout()
	if err != nil {
		return err
	}
	store := state.NewStore(layout, config.BuildReferenceConfig(), config.BuildCreditNoteLayout())

	today := cells.Today()
	if asOfDate != "" {
		today, _ = time.Parse("2006-01-02", asOfDate)
	}

	data, err := os.ReadFile(loadFile)
	if err != nil {
		exitWith(fmt.Errorf("could not read %s: %w", loadFile, err))
	}
	snap, err := store.LoadWorkbook(filepath.Base(loadFile), data, today)
	if err != nil {
		exitWith(err)
	}

	if creditNotesFile != "" {
		data, err := os.ReadFile(creditNotesFile)
		if err != nil {
			exitWith(fmt.Errorf("could not read %s: %w", creditNotesFile, err))
		}
		if _, err := store.ApplyCreditNotes(filepath.Base(creditNotesFile), data); err != nil {
			exitWith(err)
		}
		snap = store.Current()
	}

	printSummary(snap)
	return nil
}

func printSummary(snap *state.Snapshot) {
	kpis := derive.ComputeKPIs(snap.Invoices)

	if outputFormat == "json" {
		payload := map[string]interface{}{
			"file":     snap.SourceName,
			"stats":    snap.Stats,
			"degraded": snap.Degraded,
			"invoices": len(snap.Invoices),
			"kpis":     kpis,
		}
		if snap.CreditNotes != nil {
			payload["creditNotes"] = snap.CreditNotes
		}
		json.NewEncoder(os.Stdout).Encode(payload)
		return
	}

	fmt.Printf("Loaded %s: %s\n", snap.SourceName, snap.Stats)
	if len(snap.Stats.Rejections) > 0 {
		fmt.Println("Rejections:")
		for reason, count := range snap.Stats.Rejections {
			fmt.Printf("  %-22s %d\n", reason, count)
		}
	}
	if snap.Degraded {
		fmt.Println("WARNING: reference sheets missing; vendor type/country are sentinels")
	}
	if snap.CreditNotes != nil {
		fmt.Printf("Credit notes: %s\n", snap.CreditNotes)
	}
	fmt.Printf("Overdue: %s across %d vendors (avg %.1f days, %d vendors total)\n",
		kpis.OverdueAmount, kpis.OverdueVendors, kpis.AvgDaysOverdue, kpis.TotalVendors)
}

// exitWith prints the user-facing message and terminates with the category's
// exit code.
func exitWith(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", lederrors.UserMessage(err))
	if le, ok := lederrors.AsLedgerError(err); ok {
		if le.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", le.Suggestion)
		}
		os.Exit(le.ExitCode())
	}
	os.Exit(1)
}
