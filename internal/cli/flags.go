package cli

import (
	"flag"

	"github.com/lengolf/reconcile/internal/domain/matcher"
	"github.com/lengolf/reconcile/internal/infrastructure/config"
)

// ReconcileFlags are the flags for the reconcile command.
type ReconcileFlags struct {
	Type             string
	InvoiceFile      string
	POSFile          string
	FileName         string
	AmountTolerance  float64
	PercentTolerance float64
	AutoResolve      bool
	JSON             bool
	Verbose          bool
}

// ParseReconcileFlags parses command line flags for the reconcile command.
func ParseReconcileFlags() *ReconcileFlags {
	flags := &ReconcileFlags{}
	flag.StringVar(&flags.Type, "type", "restaurant", "Reconciliation type (restaurant or coaching)")
	flag.StringVar(&flags.InvoiceFile, "invoices", "", "Path to the invoice CSV file")
	flag.StringVar(&flags.POSFile, "pos", "", "Path to the POS CSV file")
	flag.StringVar(&flags.FileName, "name", "", "Session file name (defaults to the invoice file)")
	flag.Float64Var(&flags.AmountTolerance, "amount-tolerance", 0, "Absolute amount tolerance for exact matches")
	flag.Float64Var(&flags.PercentTolerance, "percent-tolerance", 0, "Relative tolerance for amount-only matches (0 = config default)")
	flag.BoolVar(&flags.AutoResolve, "auto-resolve", false, "Mark exact matches approved on save")
	flag.BoolVar(&flags.JSON, "json", false, "Print the summary as JSON")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToOptions merges the flags over the configured defaults.
func (f *ReconcileFlags) ToOptions(cfg *config.Config) matcher.Options {
	opts := matcher.DefaultOptions()
	opts.AmountTolerance = cfg.Reconciliation.AmountTolerance
	opts.PercentTolerance = cfg.Reconciliation.PercentTolerance
	opts.NameSimilarityThreshold = cfg.Reconciliation.NameSimilarityThreshold
	opts.AutoResolveExactMatches = cfg.Reconciliation.AutoResolveExactMatches
	if cfg.Reconciliation.DateFormat != "" {
		opts.DateFormat = cfg.Reconciliation.DateFormat
	}
	if len(cfg.Reconciliation.CurrencySymbols) > 0 {
		opts.CurrencySymbols = cfg.Reconciliation.CurrencySymbols
	}

	if f.AmountTolerance > 0 {
		opts.AmountTolerance = f.AmountTolerance
	}
	if f.PercentTolerance > 0 {
		opts.PercentTolerance = f.PercentTolerance
	}
	if f.AutoResolve {
		opts.AutoResolveExactMatches = true
	}
	return opts
}
