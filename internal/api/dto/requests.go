package dto

import (
	"github.com/lengolf/reconcile/internal/domain/billing"
	"github.com/lengolf/reconcile/internal/domain/matcher"
)

// ReconcileRequest starts a reconciliation run over two materialized record
// sets. Parsing the source file into rows is the caller's concern.
type ReconcileRequest struct {
	ReconciliationType string              `json:"reconciliationType"`
	FileName           string              `json:"fileName"`
	InvoiceRows        []map[string]string `json:"invoiceRows"`
	POSRows            []map[string]string `json:"posRows"`
	Options            *matcher.Options    `json:"options,omitempty"`
}

// ResolveRequest is a staff resolution action against one item.
// Version is the item version the client last read; a stale version is
// rejected with a 409.
type ResolveRequest struct {
	ResolvedBy string `json:"resolvedBy"`
	Notes      string `json:"notes,omitempty"`
	Version    int64  `json:"version"`
}

// SupplierCreateRequest registers a billing supplier.
type SupplierCreateRequest struct {
	Name               string  `json:"name"`
	AddressLine1       string  `json:"addressLine1,omitempty"`
	AddressLine2       string  `json:"addressLine2,omitempty"`
	TaxID              string  `json:"taxId,omitempty"`
	DefaultDescription string  `json:"defaultDescription,omitempty"`
	DefaultUnitPrice   float64 `json:"defaultUnitPrice,omitempty"`
}

// SettingsUpdateRequest upserts business settings.
type SettingsUpdateRequest map[string]string

// InvoiceComputeRequest computes supplier invoice totals. When TaxRate is
// nil the stored default withholding tax rate applies.
type InvoiceComputeRequest struct {
	TaxRate *float64           `json:"taxRate,omitempty"`
	Items   []billing.LineItem `json:"items"`
}
