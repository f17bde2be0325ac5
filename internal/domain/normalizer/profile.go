package normalizer

import "github.com/lengolf/reconcile/internal/domain/ledger"

// Profile describes how raw source rows map onto the canonical shape for one
// reconciliation type: which source column holds each canonical field, the
// expected date layout, and the currency symbols to strip before numeric
// parsing.
type Profile struct {
	// FieldMap maps canonical field names to source column names.
	// Canonical fields without an entry fall back to their own name.
	FieldMap        map[string]string
	DateFormat      string
	CurrencySymbols []string
}

// DefaultDateFormat is the expected raw date layout when none is configured.
const DefaultDateFormat = "2006-01-02"

// DefaultCurrencySymbols are stripped from amount fields before parsing.
// Covers Thai baht plus the separators the POS exports use.
var DefaultCurrencySymbols = []string{"฿", "$", "THB", ","}

// DefaultProfile returns the built-in profile for a reconciliation type.
func DefaultProfile(rtype ledger.ReconciliationType) Profile {
	p := Profile{
		FieldMap:        map[string]string{},
		DateFormat:      DefaultDateFormat,
		CurrencySymbols: append([]string(nil), DefaultCurrencySymbols...),
	}

	switch rtype {
	case ledger.TypeCoaching:
		p.FieldMap = map[string]string{
			"product":  "lesson_type",
			"quantity": "lesson_count",
			"count":    "transaction_count",
		}
	default: // restaurant line items
		p.FieldMap = map[string]string{
			"product": "product_name",
		}
	}

	return p
}

// Field resolves a canonical field name to the source column name.
func (p Profile) Field(canonical string) string {
	if col, ok := p.FieldMap[canonical]; ok {
		return col
	}
	return canonical
}

// WithDateFormat returns a copy of the profile using the given date layout.
func (p Profile) WithDateFormat(layout string) Profile {
	if layout != "" {
		p.DateFormat = layout
	}
	return p
}

// WithCurrencySymbols returns a copy of the profile using the given symbols.
func (p Profile) WithCurrencySymbols(symbols []string) Profile {
	if len(symbols) > 0 {
		p.CurrencySymbols = append([]string(nil), symbols...)
	}
	return p
}
