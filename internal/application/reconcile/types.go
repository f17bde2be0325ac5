package reconcile

import (
	"time"

	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/domain/matcher"
	"github.com/lengolf/reconcile/internal/domain/normalizer"
	"github.com/lengolf/reconcile/internal/domain/summary"
)

// Input is one materialized reconciliation request. Both record sets must be
// complete before the run starts; partial or streamed input would break the
// matcher's deterministic tie-breaking.
type Input struct {
	Type        ledger.ReconciliationType
	FileName    string
	InvoiceRows []map[string]string
	POSRows     []map[string]string
	Options     matcher.Options
}

// Result is the synchronous outcome of one reconciliation run.
type Result struct {
	SessionID      string
	Type           ledger.ReconciliationType
	Matched        []matcher.MatchedItem
	InvoiceOnly    []ledger.InvoiceItem
	POSOnly        []ledger.POSRecord
	Summary        summary.Summary
	ParseErrors    []normalizer.ParseError
	DateRangeStart string
	DateRangeEnd   string
	ProcessingTime time.Duration
}
