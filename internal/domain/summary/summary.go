// Package summary aggregates matcher output into the run-level figures
// persisted with each reconciliation session.
package summary

import "github.com/lengolf/reconcile/internal/domain/matcher"

// Summary holds the aggregate statistics of one reconciliation run.
// All rate and percentage fields are zero-guarded: empty datasets on either
// side produce zeros, never a division fault.
type Summary struct {
	TotalInvoiceItems  int     `json:"totalInvoiceItems"`
	TotalPOSRecords    int     `json:"totalPosRecords"`
	MatchedCount       int     `json:"matchedCount"`
	MatchRate          float64 `json:"matchRate"` // percent of invoice items matched, in [0,100]
	TotalInvoiceAmount float64 `json:"totalInvoiceAmount"`
	TotalPOSAmount     float64 `json:"totalPosAmount"`
	VarianceAmount     float64 `json:"varianceAmount"` // total POS minus total invoice
	VariancePercentage float64 `json:"variancePercentage"`
}

// Build computes the summary for a matcher result.
func Build(r *matcher.Result) Summary {
	var s Summary

	for _, m := range r.Matched {
		s.TotalInvoiceAmount += m.Invoice.TotalAmount
		s.TotalPOSAmount += m.POS.Amount()
	}
	for _, inv := range r.InvoiceOnly {
		s.TotalInvoiceAmount += inv.TotalAmount
	}
	for _, rec := range r.POSOnly {
		s.TotalPOSAmount += rec.Amount()
	}

	s.TotalInvoiceItems = len(r.Matched) + len(r.InvoiceOnly)
	s.TotalPOSRecords = len(r.Matched) + len(r.POSOnly)
	s.MatchedCount = len(r.Matched)

	if s.TotalInvoiceItems > 0 {
		s.MatchRate = float64(s.MatchedCount) / float64(s.TotalInvoiceItems) * 100
	}

	s.VarianceAmount = s.TotalPOSAmount - s.TotalInvoiceAmount
	if s.TotalInvoiceAmount != 0 {
		s.VariancePercentage = s.VarianceAmount / s.TotalInvoiceAmount * 100
	}

	return s
}
