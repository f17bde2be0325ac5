package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_billing_tables",
		Up:      migration002AddBillingTables,
	},
	{
		Version: 3,
		Name:    "seed_default_settings",
		Up:      migration003SeedDefaultSettings,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the reconciliation tables:
// sessions, items, and the resolution audit trail.
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reconciliation_sessions (
			id TEXT PRIMARY KEY,
			reconciliation_type TEXT NOT NULL,
			file_name TEXT,
			date_range_start TEXT,
			date_range_end TEXT,
			total_invoice_items INTEGER DEFAULT 0,
			total_pos_records INTEGER DEFAULT 0,
			matched_items INTEGER DEFAULT 0,
			match_rate REAL DEFAULT 0,
			total_invoice_amount REAL DEFAULT 0,
			total_pos_amount REAL DEFAULT 0,
			variance_amount REAL DEFAULT 0,
			variance_percentage REAL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'processing',
			error_message TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP,
			options_json TEXT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_type
		 ON reconciliation_sessions(reconciliation_type)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_status
		 ON reconciliation_sessions(status)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_created
		 ON reconciliation_sessions(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS reconciliation_items (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			item_type TEXT NOT NULL,
			match_tier TEXT,
			confidence REAL DEFAULT 0,
			invoice_data TEXT,
			pos_data TEXT,
			amount_variance REAL DEFAULT 0,
			quantity_variance REAL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'unresolved',
			resolution_notes TEXT,
			resolved_by TEXT,
			resolved_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (session_id) REFERENCES reconciliation_sessions(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_items_session
		 ON reconciliation_items(session_id)`,

		`CREATE INDEX IF NOT EXISTS idx_items_status
		 ON reconciliation_items(status)`,

		`CREATE INDEX IF NOT EXISTS idx_items_type
		 ON reconciliation_items(item_type)`,

		`CREATE TABLE IF NOT EXISTS resolution_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			prev_status TEXT NOT NULL,
			next_status TEXT NOT NULL,
			notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (item_id) REFERENCES reconciliation_items(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_item
		 ON resolution_events(item_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddBillingTables creates the supplier and settings tables from
// the original invoice workflow.
func migration002AddBillingTables(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS suppliers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			address_line1 TEXT,
			address_line2 TEXT,
			tax_id TEXT UNIQUE,
			default_description TEXT,
			default_unit_price REAL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration003SeedDefaultSettings installs the business identity and the
// default withholding tax rate.
func migration003SeedDefaultSettings(db *sql.Tx) error {
	defaults := map[string]string{
		"business_name":          "LENGOLF CO. LTD.",
		"business_address_line1": "540 Mercury Tower, 4 Floor, Unit 407 Ploenchit Road",
		"business_address_line2": "Lumpini, Pathumwan, Bangkok 10330",
		"business_tax_id":        "105566207013",
		"default_wht_rate":       "3.00",
		"bank_name":              "",
		"bank_account_number":    "",
	}

	for key, value := range defaults {
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
			key, value,
		); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}

	return nil
}
