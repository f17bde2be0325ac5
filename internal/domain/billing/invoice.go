// Package billing computes supplier invoice totals with Thai withholding
// tax. The rate comes from the settings store (default 3%); tax is rounded
// to two decimals and deducted from the subtotal.
package billing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoLineItems is returned when an invoice has no valid line items.
var ErrNoLineItems = errors.New("invoice has no valid line items")

// LineItem is one description/amount pair on a supplier invoice.
// Items with an empty description or a non-positive amount are ignored.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Invoice is a supplier invoice to be computed.
type Invoice struct {
	SupplierID    int64      `json:"supplierId"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"` // ISO date
	TaxRate       float64    `json:"taxRate"`     // withholding tax percent
	Items         []LineItem `json:"items"`
}

// Totals are the computed invoice figures.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	TaxRate  float64 `json:"taxRate"`
	Tax      float64 `json:"tax"`   // withholding tax, rounded to 2 decimals
	Total    float64 `json:"total"` // subtotal minus withholding tax
}

// Compute sums the valid line items and applies the withholding tax.
func (inv Invoice) Compute() (Totals, error) {
	subtotal := decimal.Zero
	valid := 0
	for _, item := range inv.Items {
		if item.Description == "" || item.Amount <= 0 {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Amount))
		valid++
	}

	if valid == 0 {
		return Totals{}, ErrNoLineItems
	}

	rate := decimal.NewFromFloat(inv.TaxRate)
	tax := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Sub(tax)

	sub, _ := subtotal.Float64()
	t, _ := tax.Float64()
	tot, _ := total.Float64()

	return Totals{
		Subtotal: sub,
		TaxRate:  inv.TaxRate,
		Tax:      t,
		Total:    tot,
	}, nil
}
