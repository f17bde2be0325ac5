package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_CreateAndGetSupplier(t *testing.T) {
	store := newTestStorage(t)

	supplier := &Supplier{
		Name:               "Bangkok Golf Supply Co.",
		AddressLine1:       "88 Sukhumvit Rd",
		TaxID:              "0105561234567",
		DefaultDescription: "Range balls",
		DefaultUnitPrice:   250,
	}
	require.NoError(t, store.CreateSupplier(supplier))
	assert.NotZero(t, supplier.ID)

	got, err := store.GetSupplier(supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bangkok Golf Supply Co.", got.Name)
	assert.Equal(t, "0105561234567", got.TaxID)
	assert.Equal(t, 250.0, got.DefaultUnitPrice)
}

func TestStorage_CreateSupplier_DuplicateTaxID(t *testing.T) {
	store := newTestStorage(t)

	require.NoError(t, store.CreateSupplier(&Supplier{Name: "First", TaxID: "0105561234567"}))

	err := store.CreateSupplier(&Supplier{Name: "Second", TaxID: "0105561234567"})
	assert.ErrorIs(t, err, ErrDuplicateTaxID)
}

func TestStorage_CreateSupplier_EmptyTaxIDsAllowed(t *testing.T) {
	store := newTestStorage(t)

	// Suppliers without a tax ID never collide with each other.
	require.NoError(t, store.CreateSupplier(&Supplier{Name: "One"}))
	require.NoError(t, store.CreateSupplier(&Supplier{Name: "Two"}))

	suppliers, err := store.ListSuppliers()
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)
}

func TestStorage_GetSupplier_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetSupplier(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_ListSuppliers_OrderedByName(t *testing.T) {
	store := newTestStorage(t)

	require.NoError(t, store.CreateSupplier(&Supplier{Name: "Zebra Foods"}))
	require.NoError(t, store.CreateSupplier(&Supplier{Name: "Alpha Catering"}))

	suppliers, err := store.ListSuppliers()
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Alpha Catering", suppliers[0].Name)
	assert.Equal(t, "Zebra Foods", suppliers[1].Name)
}

func TestStorage_Settings_SeededDefaults(t *testing.T) {
	store := newTestStorage(t)

	rate, err := store.GetSetting("default_wht_rate", "")
	require.NoError(t, err)
	assert.Equal(t, "3.00", rate)

	name, err := store.GetSetting("business_name", "")
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestStorage_Settings_FallbackAndUpsert(t *testing.T) {
	store := newTestStorage(t)

	val, err := store.GetSetting("no_such_key", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", val)

	require.NoError(t, store.SetSetting("default_wht_rate", "5.00"))
	require.NoError(t, store.SetSetting("custom_key", "v1"))
	require.NoError(t, store.SetSetting("custom_key", "v2"))

	rate, err := store.GetSetting("default_wht_rate", "")
	require.NoError(t, err)
	assert.Equal(t, "5.00", rate)

	all, err := store.GetAllSettings()
	require.NoError(t, err)
	assert.Equal(t, "v2", all["custom_key"])
	assert.Equal(t, "5.00", all["default_wht_rate"])
}
