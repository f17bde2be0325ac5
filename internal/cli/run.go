package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lengolf/reconcile/internal/application/reconcile"
	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/infrastructure/config"
	"github.com/lengolf/reconcile/internal/infrastructure/logging"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// RunReconcile loads both CSV files, runs one reconciliation, and prints
// the outcome.
func RunReconcile(cfg *config.Config, flags *ReconcileFlags) error {
	if flags.InvoiceFile == "" || flags.POSFile == "" {
		return fmt.Errorf("both -invoices and -pos are required")
	}

	recType := ledger.ReconciliationType(flags.Type)
	if !recType.Valid() {
		return fmt.Errorf("unknown reconciliation type %q", flags.Type)
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "reconcile")

	invoiceRows, err := LoadRows(flags.InvoiceFile)
	if err != nil {
		return err
	}
	posRows, err := LoadRows(flags.POSFile)
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fileName := flags.FileName
	if fileName == "" {
		fileName = filepath.Base(flags.InvoiceFile)
	}

	PrintHeader(flags.Type, fileName)

	engine := reconcile.NewEngine(store, logger)
	result, err := engine.Run(context.Background(), reconcile.Input{
		Type:        recType,
		FileName:    fileName,
		InvoiceRows: invoiceRows,
		POSRows:     posRows,
		Options:     flags.ToOptions(cfg),
	})
	if err != nil {
		return err
	}

	return PrintResult(result, flags.JSON)
}
