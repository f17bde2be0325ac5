package dto

import (
	"github.com/lengolf/reconcile/internal/domain/normalizer"
	"github.com/lengolf/reconcile/internal/domain/summary"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// ReconcileResponse is the synchronous outcome of a reconciliation run.
type ReconcileResponse struct {
	SessionID      string                  `json:"sessionId"`
	Summary        summary.Summary         `json:"summary"`
	ParseErrors    []normalizer.ParseError `json:"parseErrors,omitempty"`
	DateRangeStart string                  `json:"dateRangeStart,omitempty"`
	DateRangeEnd   string                  `json:"dateRangeEnd,omitempty"`
	ProcessingMs   int64                   `json:"processingMs"`
}

// SessionListResponse wraps a page of sessions.
type SessionListResponse struct {
	Sessions []storage.Session `json:"sessions"`
	Count    int               `json:"count"`
}

// ItemListResponse wraps a session's items.
type ItemListResponse struct {
	Items []storage.Item `json:"items"`
	Count int            `json:"count"`
}

// ItemResponse wraps one item with its audit trail.
type ItemResponse struct {
	Item   storage.Item              `json:"item"`
	Events []storage.ResolutionEvent `json:"events,omitempty"`
}

// SupplierListResponse wraps all suppliers.
type SupplierListResponse struct {
	Suppliers []storage.Supplier `json:"suppliers"`
	Count     int                `json:"count"`
}

// SettingsResponse wraps the settings map.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}
