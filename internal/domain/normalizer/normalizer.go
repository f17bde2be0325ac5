// Package normalizer converts raw source rows into the canonical comparable
// shape the matcher operates on: day-precision date, canonical identity,
// numeric amount, numeric quantity.
//
// A row that fails to parse is collected as a ParseError and skipped; a
// single bad row never aborts the batch. Source rows are never mutated.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// Parse error codes.
const (
	CodeBadDate     = "bad_date"
	CodeBadAmount   = "bad_amount"
	CodeBadQuantity = "bad_quantity"
	CodeMissing     = "missing_field"
)

// ParseError describes a record-level failure. The record is excluded from
// matching but the run continues.
type ParseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Field   string `json:"field"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d field %q: %s (%s)", e.Line, e.Field, e.Message, e.Code)
}

// NormalizeInvoiceItems converts raw invoice rows into InvoiceItems.
// Rows that fail to parse are reported via the returned ParseError slice.
func NormalizeInvoiceItems(rows []map[string]string, p Profile) ([]ledger.InvoiceItem, []ParseError) {
	items := make([]ledger.InvoiceItem, 0, len(rows))
	var parseErrs []ParseError

	for i, row := range rows {
		item, perr := normalizeInvoiceRow(row, p, i)
		if perr != nil {
			parseErrs = append(parseErrs, *perr)
			continue
		}
		items = append(items, item)
	}

	return items, parseErrs
}

func normalizeInvoiceRow(row map[string]string, p Profile, line int) (ledger.InvoiceItem, *ParseError) {
	date, perr := parseDate(row[p.Field("date")], p.DateFormat, line, p.Field("date"))
	if perr != nil {
		return ledger.InvoiceItem{}, perr
	}

	amount, perr := parseAmount(row[p.Field("total_amount")], p.CurrencySymbols, line, p.Field("total_amount"))
	if perr != nil {
		return ledger.InvoiceItem{}, perr
	}

	qty, perr := parseQuantity(row[p.Field("quantity")], line, p.Field("quantity"))
	if perr != nil {
		return ledger.InvoiceItem{}, perr
	}

	unitPrice, _ := parseAmount(row[p.Field("unit_price")], p.CurrencySymbols, line, p.Field("unit_price"))

	customer := row[p.Field("customer")]
	item := ledger.InvoiceItem{
		Date:        date,
		Customer:    customer,
		ProductType: row[p.Field("product_type")],
		Quantity:    qty,
		UnitPrice:   unitPrice,
		TotalAmount: amount,
		Notes:       row[p.Field("notes")],
		Raw:         cloneRow(row),
		Identity:    CanonicalIdentity(customer),
		IdentityKey: identityKey(row[p.Field("receipt_number")], row[p.Field("phone")]),
	}
	return item, nil
}

// NormalizePOSRecords converts raw POS rows into the tagged record shape for
// the given reconciliation type. Voided line-item rows are still returned;
// the engine filters them from the candidate pool.
func NormalizePOSRecords(rows []map[string]string, rtype ledger.ReconciliationType, p Profile) ([]ledger.POSRecord, []ParseError) {
	records := make([]ledger.POSRecord, 0, len(rows))
	var parseErrs []ParseError

	for i, row := range rows {
		var rec ledger.POSRecord
		var perr *ParseError
		switch rtype {
		case ledger.TypeCoaching:
			rec, perr = normalizeAggregatedRow(row, p, i)
		default:
			rec, perr = normalizeLineItemRow(row, p, i)
		}
		if perr != nil {
			parseErrs = append(parseErrs, *perr)
			continue
		}
		records = append(records, rec)
	}

	return records, parseErrs
}

func normalizeLineItemRow(row map[string]string, p Profile, line int) (*ledger.LineItemRecord, *ParseError) {
	date, perr := parseDate(row[p.Field("date")], p.DateFormat, line, p.Field("date"))
	if perr != nil {
		return nil, perr
	}

	amount, perr := parseAmount(row[p.Field("amount")], p.CurrencySymbols, line, p.Field("amount"))
	if perr != nil {
		return nil, perr
	}

	qty, perr := parseQuantity(row[p.Field("quantity")], line, p.Field("quantity"))
	if perr != nil {
		return nil, perr
	}

	customer := row[p.Field("customer")]
	rec := &ledger.LineItemRecord{
		TxDate:      date,
		Customer:    customer,
		ProductName: row[p.Field("product")],
		Category:    row[p.Field("category")],
		Qty:         qty,
		Total:       amount,
		ReceiptID:   row[p.Field("receipt_id")],
		Voided:      parseBool(row[p.Field("voided")]),
		RawFields:   cloneRow(row),
	}
	rec.SetComparisonSurface(CanonicalIdentity(customer), strings.TrimSpace(rec.ReceiptID))
	return rec, nil
}

func normalizeAggregatedRow(row map[string]string, p Profile, line int) (*ledger.AggregatedRecord, *ParseError) {
	date, perr := parseDate(row[p.Field("date")], p.DateFormat, line, p.Field("date"))
	if perr != nil {
		return nil, perr
	}

	amount, perr := parseAmount(row[p.Field("amount")], p.CurrencySymbols, line, p.Field("amount"))
	if perr != nil {
		return nil, perr
	}

	qty, perr := parseQuantity(row[p.Field("quantity")], line, p.Field("quantity"))
	if perr != nil {
		return nil, perr
	}

	count := 0
	if v := row[p.Field("count")]; v != "" {
		count, _ = strconv.Atoi(strings.TrimSpace(v))
	}

	customer := row[p.Field("customer")]
	rec := &ledger.AggregatedRecord{
		TxDate:      date,
		Customer:    customer,
		ProductName: row[p.Field("product")],
		TotalQty:    qty,
		TotalAmount: amount,
		TxCount:     count,
		Phone:       row[p.Field("phone")],
		RawFields:   cloneRow(row),
	}
	rec.SetComparisonSurface(CanonicalIdentity(customer), PhoneKey(rec.Phone))
	return rec, nil
}

// CanonicalIdentity lower-cases and whitespace-collapses a customer name so
// that "John  SMITH " and "john smith" compare equal.
func CanonicalIdentity(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// PhoneKey reduces a phone number to its last 9 digits after stripping the
// country code and leading zero. Returns "" when fewer than 9 digits remain.
func PhoneKey(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	// Strip Thai country code, then a leading zero.
	if len(d) > 9 && strings.HasPrefix(d, "66") {
		d = d[2:]
	}
	if len(d) > 9 && strings.HasPrefix(d, "0") {
		d = d[1:]
	}

	if len(d) < 9 {
		return ""
	}
	return d[len(d)-9:]
}

// identityKey prefers a receipt number; falls back to a phone-derived key.
func identityKey(receipt, phone string) string {
	if r := strings.TrimSpace(receipt); r != "" {
		return r
	}
	return PhoneKey(phone)
}

func parseDate(raw, layout string, line int, field string) (time.Time, *ParseError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ParseError{Code: CodeMissing, Message: "date is required", Line: line, Field: field}
	}

	t, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, &ParseError{Code: CodeBadDate, Message: err.Error(), Line: line, Field: field}
	}

	// Day precision only; time-of-day never participates in matching.
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseAmount strips currency symbols and thousands separators, then parses
// the remainder as an exact decimal before converting to float64.
func parseAmount(raw string, symbols []string, line int, field string) (float64, *ParseError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ParseError{Code: CodeMissing, Message: "amount is required", Line: line, Field: field}
	}

	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ParseError{Code: CodeBadAmount, Message: fmt.Sprintf("cannot parse %q as amount", raw), Line: line, Field: field}
	}

	f, _ := d.Float64()
	return f, nil
}

func parseQuantity(raw string, line int, field string) (float64, *ParseError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1, nil // absent quantity means a single unit
	}

	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Code: CodeBadQuantity, Message: fmt.Sprintf("cannot parse %q as quantity", raw), Line: line, Field: field}
	}
	return q, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "void", "voided":
		return true
	}
	return false
}

func cloneRow(row map[string]string) map[string]string {
	clone := make(map[string]string, len(row))
	for k, v := range row {
		clone[k] = v
	}
	return clone
}
