package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lengolf/reconcile/internal/application/reconcile"
)

// PrintHeader prints the run header.
func PrintHeader(recType, fileName string) {
	fmt.Printf("reconcile: %s (%s)\n", recType, fileName)
}

// PrintResult prints the run result, either as a human-readable summary or
// as JSON for scripting.
func PrintResult(result *reconcile.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Summary)
	}

	s := result.Summary
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Session:    %s\n", result.SessionID)
	if result.DateRangeStart != "" {
		fmt.Printf("Dates:      %s to %s\n", result.DateRangeStart, result.DateRangeEnd)
	}
	fmt.Printf("Matched:    %d of %d invoice items (%.1f%%)\n",
		s.MatchedCount, s.TotalInvoiceItems, s.MatchRate)
	fmt.Printf("Unmatched:  %d invoice-only, %d pos-only\n",
		len(result.InvoiceOnly), len(result.POSOnly))
	fmt.Printf("Variance:   %.2f (%.2f%%)\n", s.VarianceAmount, s.VariancePercentage)

	if len(result.ParseErrors) > 0 {
		fmt.Printf("\nExcluded %d malformed records:\n", len(result.ParseErrors))
		for _, perr := range result.ParseErrors {
			fmt.Printf("  line %d: %s\n", perr.Line, perr.Message)
		}
	}

	fmt.Printf("\nCompleted in %s\n", result.ProcessingTime)
	return nil
}
