package storage

import (
	"time"

	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/domain/matcher"
)

// Session statuses.
const (
	SessionProcessing = "processing"
	SessionCompleted  = "completed"
	SessionFailed     = "failed"
)

// Item types.
const (
	ItemMatched     = "matched"
	ItemInvoiceOnly = "invoice_only"
	ItemPOSOnly     = "pos_only"
)

// Session is one execution of the matching engine over an invoice/POS pair.
// Created in processing; finalized completed or failed. A failed session
// keeps whatever items were produced before the fault but its figures are
// not trustworthy.
type Session struct {
	ID                 string          `json:"id"`
	ReconciliationType string          `json:"reconciliationType"`
	FileName           string          `json:"fileName"`
	DateRangeStart     string          `json:"dateRangeStart"`
	DateRangeEnd       string          `json:"dateRangeEnd"`
	TotalInvoiceItems  int             `json:"totalInvoiceItems"`
	TotalPOSRecords    int             `json:"totalPosRecords"`
	MatchedItems       int             `json:"matchedItems"`
	MatchRate          float64         `json:"matchRate"`
	TotalInvoiceAmount float64         `json:"totalInvoiceAmount"`
	TotalPOSAmount     float64         `json:"totalPosAmount"`
	VarianceAmount     float64         `json:"varianceAmount"`
	VariancePercentage float64         `json:"variancePercentage"`
	Status             string          `json:"status"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	Options            matcher.Options `json:"reconciliationOptions"`
}

// Item is the persisted outcome for one processed record within a session.
// Version increments on every resolution write; a stale-version write is
// rejected rather than silently overwritten.
type Item struct {
	ID               string                  `json:"id"`
	SessionID        string                  `json:"sessionId"`
	ItemType         string                  `json:"itemType"`
	MatchTier        string                  `json:"matchType,omitempty"`
	Confidence       float64                 `json:"confidence"`
	InvoiceData      string                  `json:"invoiceData,omitempty"` // raw payload, opaque JSON
	POSData          string                  `json:"posData,omitempty"`     // raw payload, opaque JSON
	AmountVariance   float64                 `json:"amountVariance"`
	QuantityVariance float64                 `json:"quantityVariance"`
	Status           ledger.ResolutionStatus `json:"status"`
	ResolutionNotes  string                  `json:"resolutionNotes,omitempty"`
	ResolvedBy       string                  `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time              `json:"resolvedAt,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	Version          int64                   `json:"version"`
}

// ResolutionEvent is one audit entry for a staff resolution action.
type ResolutionEvent struct {
	ID         int64                   `json:"id"`
	ItemID     string                  `json:"itemId"`
	Actor      string                  `json:"actor"`
	PrevStatus ledger.ResolutionStatus `json:"prevStatus"`
	NextStatus ledger.ResolutionStatus `json:"nextStatus"`
	Notes      string                  `json:"notes,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// Supplier is a billing counterparty from the original invoice workflow.
type Supplier struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	AddressLine1       string  `json:"addressLine1,omitempty"`
	AddressLine2       string  `json:"addressLine2,omitempty"`
	TaxID              string  `json:"taxId,omitempty"`
	DefaultDescription string  `json:"defaultDescription,omitempty"`
	DefaultUnitPrice   float64 `json:"defaultUnitPrice,omitempty"`
}

// Stats are cross-session aggregates for the dashboard.
type Stats struct {
	TotalSessions    int                  `json:"total_sessions"`
	CompletedCount   int                  `json:"completed_count"`
	FailedCount      int                  `json:"failed_count"`
	AverageMatchRate float64              `json:"average_match_rate"`
	UnresolvedItems  int                  `json:"unresolved_items"`
	DisputedItems    int                  `json:"disputed_items"`
	TypeStats        map[string]TypeStats `json:"type_stats"`
}

// TypeStats are per-reconciliation-type aggregates.
type TypeStats struct {
	Count            int     `json:"count"`
	AverageMatchRate float64 `json:"average_match_rate"`
	TotalVariance    float64 `json:"total_variance"`
}
