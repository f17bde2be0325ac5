// Package ledger defines the record types that flow through the
// reconciliation engine: externally supplied invoice items and internally
// recorded POS records.
//
// POS records come in two shapes depending on the business line. Restaurant
// exports are per-receipt line items; coaching exports are per-customer daily
// aggregates. Both expose the same minimal comparison surface (date,
// identity, amount, quantity) so the matcher never needs to know which shape
// it is looking at.
package ledger

import "time"

// ReconciliationType selects the normalization profile and the expected POS
// record shape for a run.
type ReconciliationType string

const (
	TypeRestaurant ReconciliationType = "restaurant"
	TypeCoaching   ReconciliationType = "coaching"
)

// Valid reports whether t is a known reconciliation type.
func (t ReconciliationType) Valid() bool {
	return t == TypeRestaurant || t == TypeCoaching
}

// RecordKind tags the two POS record shapes.
type RecordKind string

const (
	KindLineItem   RecordKind = "line_item"
	KindAggregated RecordKind = "aggregated"
)

// ResolutionStatus is the staff-driven workflow state of a reconciliation
// item. unresolved may move to approved or disputed; disputed may move to
// adjusted; approved and adjusted are terminal.
type ResolutionStatus string

const (
	StatusUnresolved ResolutionStatus = "unresolved"
	StatusApproved   ResolutionStatus = "approved"
	StatusDisputed   ResolutionStatus = "disputed"
	StatusAdjusted   ResolutionStatus = "adjusted"
)

// Terminal reports whether no further resolution transitions are allowed.
func (s ResolutionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusAdjusted
}

// InvoiceItem is one line of the externally supplied invoice ledger.
// Raw holds the verbatim source fields for audit and is never mutated
// after construction.
type InvoiceItem struct {
	Date        time.Time
	Customer    string
	ProductType string
	Quantity    float64
	UnitPrice   float64
	TotalAmount float64
	Notes       string
	Raw         map[string]string

	// Populated by the normalizer.
	Identity    string // canonical customer identity for fuzzy comparison
	IdentityKey string // receipt number or phone key, empty if none
}

// POSRecord is the shared comparison surface over both POS record shapes.
type POSRecord interface {
	Date() time.Time
	Identity() string
	IdentityKey() string
	Amount() float64
	Quantity() float64
	Kind() RecordKind
	Raw() map[string]string
}

// LineItemRecord is a single POS receipt line (restaurant exports).
type LineItemRecord struct {
	TxDate      time.Time
	Customer    string
	ProductName string
	Category    string
	Qty         float64
	Total       float64
	ReceiptID   string
	Voided      bool
	RawFields   map[string]string

	identity string
	key      string
}

func (r *LineItemRecord) Date() time.Time        { return r.TxDate }
func (r *LineItemRecord) Identity() string       { return r.identity }
func (r *LineItemRecord) IdentityKey() string    { return r.key }
func (r *LineItemRecord) Amount() float64        { return r.Total }
func (r *LineItemRecord) Quantity() float64      { return r.Qty }
func (r *LineItemRecord) Kind() RecordKind       { return KindLineItem }
func (r *LineItemRecord) Raw() map[string]string { return r.RawFields }

// SetComparisonSurface installs the normalized identity fields.
// Called by the normalizer only.
func (r *LineItemRecord) SetComparisonSurface(identity, key string) {
	r.identity = identity
	r.key = key
}

// AggregatedRecord is a per-customer daily aggregate (coaching exports).
type AggregatedRecord struct {
	TxDate      time.Time
	Customer    string
	ProductName string
	TotalQty    float64
	TotalAmount float64
	TxCount     int
	Phone       string
	RawFields   map[string]string

	identity string
	key      string
}

func (r *AggregatedRecord) Date() time.Time        { return r.TxDate }
func (r *AggregatedRecord) Identity() string       { return r.identity }
func (r *AggregatedRecord) IdentityKey() string    { return r.key }
func (r *AggregatedRecord) Amount() float64        { return r.TotalAmount }
func (r *AggregatedRecord) Quantity() float64      { return r.TotalQty }
func (r *AggregatedRecord) Kind() RecordKind       { return KindAggregated }
func (r *AggregatedRecord) Raw() map[string]string { return r.RawFields }

// SetComparisonSurface installs the normalized identity fields.
// Called by the normalizer only.
func (r *AggregatedRecord) SetComparisonSurface(identity, key string) {
	r.identity = identity
	r.key = key
}
