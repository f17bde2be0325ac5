package reconcile

// Persistence of a finished run: one item row per processed record, then the
// session's final figures.

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// record writes the item rows and completes the session.
func (e *Engine) record(session *storage.Session, result *Result) error {
	items := buildItems(session.ID, result)
	if err := e.store.SaveItems(items); err != nil {
		return err
	}

	session.TotalInvoiceItems = result.Summary.TotalInvoiceItems
	session.TotalPOSRecords = result.Summary.TotalPOSRecords
	session.MatchedItems = result.Summary.MatchedCount
	session.MatchRate = result.Summary.MatchRate
	session.TotalInvoiceAmount = result.Summary.TotalInvoiceAmount
	session.TotalPOSAmount = result.Summary.TotalPOSAmount
	session.VarianceAmount = result.Summary.VarianceAmount
	session.VariancePercentage = result.Summary.VariancePercentage
	session.DateRangeStart = result.DateRangeStart
	session.DateRangeEnd = result.DateRangeEnd

	return e.store.CompleteSession(session)
}

// buildItems converts the partition into persistable rows. Raw payloads are
// stored opaque for audit; the matcher's scores travel with matched rows.
func buildItems(sessionID string, result *Result) []*storage.Item {
	items := make([]*storage.Item, 0, len(result.Matched)+len(result.InvoiceOnly)+len(result.POSOnly))

	for _, m := range result.Matched {
		items = append(items, &storage.Item{
			ID:               uuid.NewString(),
			SessionID:        sessionID,
			ItemType:         storage.ItemMatched,
			MatchTier:        string(m.Tier),
			Confidence:       m.Confidence,
			InvoiceData:      marshalRaw(m.Invoice.Raw),
			POSData:          marshalRaw(m.POS.Raw()),
			AmountVariance:   m.AmountVariance,
			QuantityVariance: m.QuantityVariance,
			Status:           m.Status,
		})
	}

	for _, inv := range result.InvoiceOnly {
		items = append(items, &storage.Item{
			ID:          uuid.NewString(),
			SessionID:   sessionID,
			ItemType:    storage.ItemInvoiceOnly,
			InvoiceData: marshalRaw(inv.Raw),
			Status:      ledger.StatusUnresolved,
		})
	}

	for _, rec := range result.POSOnly {
		items = append(items, &storage.Item{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			ItemType:  storage.ItemPOSOnly,
			POSData:   marshalRaw(rec.Raw()),
			Status:    ledger.StatusUnresolved,
		})
	}

	return items
}

func marshalRaw(raw map[string]string) string {
	if len(raw) == 0 {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}
