// Package reconcile drives one reconciliation run end to end: normalize the
// raw rows, match invoice items against the POS pool, aggregate the summary,
// and persist the session with its items.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/domain/matcher"
	"github.com/lengolf/reconcile/internal/domain/normalizer"
	"github.com/lengolf/reconcile/internal/domain/summary"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// Engine runs reconciliations and records them through the store.
// Each run is a single synchronous batch computation.
type Engine struct {
	store  storage.Repository
	logger *slog.Logger
}

// NewEngine creates an engine. A nil logger falls back to slog.Default.
func NewEngine(store storage.Repository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run executes one reconciliation. The session is created in processing
// state before any work happens; it ends completed, or failed with whatever
// items were produced before the fault.
func (e *Engine) Run(ctx context.Context, input Input) (*Result, error) {
	started := time.Now()

	if !input.Type.Valid() {
		return nil, &ReconciliationError{
			Stage: "validate",
			Err:   fmt.Errorf("unknown reconciliation type %q", input.Type),
		}
	}

	session := &storage.Session{
		ID:                 uuid.NewString(),
		ReconciliationType: string(input.Type),
		FileName:           input.FileName,
		Status:             storage.SessionProcessing,
		Options:            input.Options,
	}
	if err := e.store.CreateSession(session); err != nil {
		return nil, &ReconciliationError{SessionID: session.ID, Stage: "persist", Err: err}
	}

	e.logger.Info("reconciliation started",
		"session_id", session.ID,
		"type", input.Type,
		"invoice_rows", len(input.InvoiceRows),
		"pos_rows", len(input.POSRows),
	)

	result, err := e.compute(ctx, session.ID, input)
	if err != nil {
		e.failSession(session.ID, err)
		return nil, err
	}

	if err := e.record(session, result); err != nil {
		e.failSession(session.ID, err)
		return nil, &ReconciliationError{SessionID: session.ID, Stage: "persist", Err: err}
	}

	result.ProcessingTime = time.Since(started)
	e.logger.Info("reconciliation completed",
		"session_id", session.ID,
		"matched", result.Summary.MatchedCount,
		"invoice_only", len(result.InvoiceOnly),
		"pos_only", len(result.POSOnly),
		"match_rate", fmt.Sprintf("%.1f%%", result.Summary.MatchRate),
		"parse_errors", len(result.ParseErrors),
		"duration", result.ProcessingTime,
	)

	return result, nil
}

// compute runs the pure pipeline stages: normalize, match, aggregate.
func (e *Engine) compute(_ context.Context, sessionID string, input Input) (*Result, error) {
	profile := normalizer.DefaultProfile(input.Type).
		WithDateFormat(input.Options.DateFormat).
		WithCurrencySymbols(input.Options.CurrencySymbols)

	invoices, invoiceErrs := normalizer.NormalizeInvoiceItems(input.InvoiceRows, profile)
	posRecords, posErrs := normalizer.NormalizePOSRecords(input.POSRows, input.Type, profile)
	parseErrs := append(invoiceErrs, posErrs...)

	for _, perr := range parseErrs {
		e.logger.Warn("record excluded from matching",
			"session_id", sessionID,
			"code", perr.Code,
			"line", perr.Line,
			"field", perr.Field,
		)
	}

	// Voided POS lines never reached the till; they are not candidates and
	// do not count as pos_only.
	posRecords = dropVoided(posRecords)

	matchResult, err := matcher.New(input.Options).Match(invoices, posRecords)
	if err != nil {
		return nil, &ReconciliationError{SessionID: sessionID, Stage: "match", Err: err}
	}

	start, end := dateRange(invoices, posRecords)

	return &Result{
		SessionID:      sessionID,
		Type:           input.Type,
		Matched:        matchResult.Matched,
		InvoiceOnly:    matchResult.InvoiceOnly,
		POSOnly:        matchResult.POSOnly,
		Summary:        summary.Build(matchResult),
		ParseErrors:    parseErrs,
		DateRangeStart: start,
		DateRangeEnd:   end,
	}, nil
}

func (e *Engine) failSession(sessionID string, cause error) {
	if err := e.store.FailSession(sessionID, cause.Error()); err != nil {
		e.logger.Error("failed to mark session failed", "session_id", sessionID, "error", err)
	}
	e.logger.Error("reconciliation failed", "session_id", sessionID, "error", cause)
}

func dropVoided(records []ledger.POSRecord) []ledger.POSRecord {
	kept := records[:0]
	for _, rec := range records {
		if line, ok := rec.(*ledger.LineItemRecord); ok && line.Voided {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// dateRange returns the ISO min/max dates across both record sets.
func dateRange(invoices []ledger.InvoiceItem, pos []ledger.POSRecord) (string, string) {
	var min, max time.Time
	observe := func(t time.Time) {
		if min.IsZero() || t.Before(min) {
			min = t
		}
		if max.IsZero() || t.After(max) {
			max = t
		}
	}

	for _, inv := range invoices {
		observe(inv.Date)
	}
	for _, rec := range pos {
		observe(rec.Date())
	}

	if min.IsZero() {
		return "", ""
	}
	return min.Format("2006-01-02"), max.Format("2006-01-02")
}
