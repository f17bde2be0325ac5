// Package storage persists reconciliation sessions, items, and the staff
// resolution workflow in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access. It implements Repository.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath and runs all
// pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// CreateSession inserts a session in processing state.
func (s *Storage) CreateSession(session *Session) error {
	if session.Status == "" {
		session.Status = SessionProcessing
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	optionsJSON, err := json.Marshal(session.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	query := `
	INSERT INTO reconciliation_sessions
	(id, reconciliation_type, file_name, date_range_start, date_range_end,
	 total_invoice_items, total_pos_records, matched_items, match_rate,
	 total_invoice_amount, total_pos_amount, variance_amount, variance_percentage,
	 status, error_message, created_at, completed_at, options_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		session.ID,
		session.ReconciliationType,
		session.FileName,
		session.DateRangeStart,
		session.DateRangeEnd,
		session.TotalInvoiceItems,
		session.TotalPOSRecords,
		session.MatchedItems,
		session.MatchRate,
		session.TotalInvoiceAmount,
		session.TotalPOSAmount,
		session.VarianceAmount,
		session.VariancePercentage,
		session.Status,
		session.ErrorMessage,
		session.CreatedAt,
		session.CompletedAt,
		string(optionsJSON),
	)

	return err
}

// CompleteSession writes the final figures and marks the session completed.
func (s *Storage) CompleteSession(session *Session) error {
	now := time.Now().UTC()
	session.CompletedAt = &now
	session.Status = SessionCompleted

	query := `
	UPDATE reconciliation_sessions
	SET total_invoice_items = ?, total_pos_records = ?, matched_items = ?,
	    match_rate = ?, total_invoice_amount = ?, total_pos_amount = ?,
	    variance_amount = ?, variance_percentage = ?,
	    status = ?, completed_at = ?
	WHERE id = ? AND status = ?
	`

	res, err := s.db.Exec(query,
		session.TotalInvoiceItems,
		session.TotalPOSRecords,
		session.MatchedItems,
		session.MatchRate,
		session.TotalInvoiceAmount,
		session.TotalPOSAmount,
		session.VarianceAmount,
		session.VariancePercentage,
		SessionCompleted,
		now,
		session.ID,
		SessionProcessing,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}

	return nil
}

// FailSession marks the session failed with an aggregated error message.
func (s *Storage) FailSession(sessionID, errorMessage string) error {
	now := time.Now().UTC()

	res, err := s.db.Exec(`
		UPDATE reconciliation_sessions
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, SessionFailed, errorMessage, now, sessionID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	return nil
}

const sessionColumns = `
	id, reconciliation_type, file_name, date_range_start, date_range_end,
	total_invoice_items, total_pos_records, matched_items, match_rate,
	total_invoice_amount, total_pos_amount, variance_amount, variance_percentage,
	status, error_message, created_at, completed_at, options_json
`

// GetSession retrieves a session by ID.
func (s *Storage) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM reconciliation_sessions WHERE id = ?`,
		sessionID,
	)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns recent sessions, newest first.
func (s *Storage) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT `+sessionColumns+` FROM reconciliation_sessions ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

// rowScanner lets scanSession work for both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var session Session
	var errorMessage sql.NullString
	var completedAt sql.NullTime
	var optionsJSON string

	err := row.Scan(
		&session.ID,
		&session.ReconciliationType,
		&session.FileName,
		&session.DateRangeStart,
		&session.DateRangeEnd,
		&session.TotalInvoiceItems,
		&session.TotalPOSRecords,
		&session.MatchedItems,
		&session.MatchRate,
		&session.TotalInvoiceAmount,
		&session.TotalPOSAmount,
		&session.VarianceAmount,
		&session.VariancePercentage,
		&session.Status,
		&errorMessage,
		&session.CreatedAt,
		&completedAt,
		&optionsJSON,
	)
	if err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		session.ErrorMessage = errorMessage.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	if optionsJSON != "" {
		_ = json.Unmarshal([]byte(optionsJSON), &session.Options)
	}

	return &session, nil
}

// GetStats returns cross-session aggregates. Failed sessions are excluded
// from the match-rate average since their figures are not trustworthy.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{
		TypeStats: make(map[string]TypeStats),
	}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
			COUNT(CASE WHEN status = 'failed' THEN 1 END) AS failed,
			COALESCE(AVG(CASE WHEN status = 'completed' THEN match_rate END), 0) AS avg_rate
		FROM reconciliation_sessions
	`).Scan(
		&stats.TotalSessions,
		&stats.CompletedCount,
		&stats.FailedCount,
		&stats.AverageMatchRate,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN status = 'unresolved' THEN 1 END),
			COUNT(CASE WHEN status = 'disputed' THEN 1 END)
		FROM reconciliation_items
	`).Scan(&stats.UnresolvedItems, &stats.DisputedItems)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT reconciliation_type,
		       COUNT(*),
		       COALESCE(AVG(CASE WHEN status = 'completed' THEN match_rate END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN variance_amount ELSE 0 END), 0)
		FROM reconciliation_sessions
		GROUP BY reconciliation_type
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rtype string
		var ts TypeStats
		if err := rows.Scan(&rtype, &ts.Count, &ts.AverageMatchRate, &ts.TotalVariance); err != nil {
			return nil, err
		}
		stats.TypeStats[rtype] = ts
	}

	return stats, rows.Err()
}
