package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSupplier inserts a supplier. Tax IDs are unique across suppliers.
func (s *Storage) CreateSupplier(supplier *Supplier) error {
	res, err := s.db.Exec(`
		INSERT INTO suppliers
		(name, address_line1, address_line2, tax_id, default_description, default_unit_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		supplier.Name,
		supplier.AddressLine1,
		supplier.AddressLine2,
		nullableString(supplier.TaxID),
		supplier.DefaultDescription,
		supplier.DefaultUnitPrice,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("tax id %s: %w", supplier.TaxID, ErrDuplicateTaxID)
		}
		return err
	}

	supplier.ID, err = res.LastInsertId()
	return err
}

// GetSupplier retrieves a supplier by ID.
func (s *Storage) GetSupplier(id int64) (*Supplier, error) {
	supplier := &Supplier{}
	var addr1, addr2, taxID, desc sql.NullString
	var price sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT id, name, address_line1, address_line2, tax_id, default_description, default_unit_price
		FROM suppliers WHERE id = ?
	`, id).Scan(&supplier.ID, &supplier.Name, &addr1, &addr2, &taxID, &desc, &price)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	supplier.AddressLine1 = addr1.String
	supplier.AddressLine2 = addr2.String
	supplier.TaxID = taxID.String
	supplier.DefaultDescription = desc.String
	supplier.DefaultUnitPrice = price.Float64

	return supplier, nil
}

// ListSuppliers returns all suppliers ordered by name.
func (s *Storage) ListSuppliers() ([]Supplier, error) {
	rows, err := s.db.Query(`
		SELECT id, name, address_line1, address_line2, tax_id, default_description, default_unit_price
		FROM suppliers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var suppliers []Supplier
	for rows.Next() {
		var supplier Supplier
		var addr1, addr2, taxID, desc sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&supplier.ID, &supplier.Name, &addr1, &addr2, &taxID, &desc, &price); err != nil {
			return nil, err
		}
		supplier.AddressLine1 = addr1.String
		supplier.AddressLine2 = addr2.String
		supplier.TaxID = taxID.String
		supplier.DefaultDescription = desc.String
		supplier.DefaultUnitPrice = price.Float64
		suppliers = append(suppliers, supplier)
	}

	return suppliers, rows.Err()
}

// nullableString maps "" to NULL so the UNIQUE index on tax_id ignores
// suppliers without one.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
