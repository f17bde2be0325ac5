package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_WithholdingTax(t *testing.T) {
	inv := Invoice{
		TaxRate: 3,
		Items: []LineItem{
			{Description: "Golf lesson package", Amount: 12000},
			{Description: "Range balls", Amount: 500},
		},
	}

	totals, err := inv.Compute()
	require.NoError(t, err)

	assert.Equal(t, 12500.0, totals.Subtotal)
	assert.Equal(t, 375.0, totals.Tax)
	assert.Equal(t, 12125.0, totals.Total)
	assert.Equal(t, 3.0, totals.TaxRate)
}

func TestCompute_TaxRoundedToTwoDecimals(t *testing.T) {
	inv := Invoice{
		TaxRate: 3,
		Items:   []LineItem{{Description: "Consulting", Amount: 333.33}},
	}

	totals, err := inv.Compute()
	require.NoError(t, err)

	// 333.33 * 0.03 = 9.9999, rounds to 10.00
	assert.Equal(t, 10.0, totals.Tax)
	assert.Equal(t, 323.33, totals.Total)
}

func TestCompute_SkipsInvalidItems(t *testing.T) {
	inv := Invoice{
		TaxRate: 3,
		Items: []LineItem{
			{Description: "Valid", Amount: 1000},
			{Description: "", Amount: 500},
			{Description: "Zero", Amount: 0},
			{Description: "Negative", Amount: -100},
		},
	}

	totals, err := inv.Compute()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, totals.Subtotal)
}

func TestCompute_NoValidItems(t *testing.T) {
	inv := Invoice{
		TaxRate: 3,
		Items:   []LineItem{{Description: "", Amount: 100}, {Description: "Zero", Amount: 0}},
	}

	_, err := inv.Compute()
	assert.ErrorIs(t, err, ErrNoLineItems)
}

func TestCompute_ZeroRate(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{{Description: "No WHT", Amount: 250}},
	}

	totals, err := inv.Compute()
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 250.0, totals.Total)
}
