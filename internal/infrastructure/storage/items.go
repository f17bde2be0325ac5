package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// SaveItems inserts all items of a session in one transaction, so a partial
// write never leaves a half-recorded run behind.
func (s *Storage) SaveItems(items []*Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reconciliation_items
		(id, session_id, item_type, match_tier, confidence,
		 invoice_data, pos_data, amount_variance, quantity_variance,
		 status, resolution_notes, resolved_by, resolved_at, created_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		if item.Version == 0 {
			item.Version = 1
		}
		if item.Status == "" {
			item.Status = ledger.StatusUnresolved
		}

		_, err := stmt.Exec(
			item.ID,
			item.SessionID,
			item.ItemType,
			item.MatchTier,
			item.Confidence,
			item.InvoiceData,
			item.POSData,
			item.AmountVariance,
			item.QuantityVariance,
			string(item.Status),
			item.ResolutionNotes,
			item.ResolvedBy,
			item.ResolvedAt,
			item.CreatedAt,
			item.Version,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

const itemColumns = `
	id, session_id, item_type, match_tier, confidence,
	invoice_data, pos_data, amount_variance, quantity_variance,
	status, resolution_notes, resolved_by, resolved_at, created_at, version
`

// GetItem retrieves an item by ID.
func (s *Storage) GetItem(itemID string) (*Item, error) {
	row := s.db.QueryRow(
		`SELECT `+itemColumns+` FROM reconciliation_items WHERE id = ?`,
		itemID,
	)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns a session's items filtered by type and status.
func (s *Storage) ListItems(sessionID string, filter ItemFilter) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM reconciliation_items WHERE session_id = ?`
	args := []any{sessionID}

	if filter.ItemType != "" {
		query += ` AND item_type = ?`
		args = append(args, filter.ItemType)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// transitionTarget applies the state machine to one action.
// The second return distinguishes a real transition from an idempotent
// repeat of an already-satisfied action.
func transitionTarget(current ledger.ResolutionStatus, action ResolutionAction) (next ledger.ResolutionStatus, noop bool, err error) {
	switch action {
	case ActionApprove:
		switch current {
		case ledger.StatusUnresolved:
			return ledger.StatusApproved, false, nil
		case ledger.StatusApproved:
			return current, true, nil
		}
	case ActionDispute:
		switch current {
		case ledger.StatusUnresolved:
			return ledger.StatusDisputed, false, nil
		case ledger.StatusDisputed:
			return current, true, nil
		}
	case ActionAdjust:
		switch current {
		case ledger.StatusDisputed:
			return ledger.StatusAdjusted, false, nil
		case ledger.StatusAdjusted:
			return current, true, nil
		}
	default:
		return current, false, fmt.Errorf("unknown action %q: %w", action, ErrInvalidTransition)
	}
	return current, false, fmt.Errorf("cannot %s an item in status %s: %w", action, current, ErrInvalidTransition)
}

// ResolveItem applies a staff resolution action under optimistic
// concurrency. The write succeeds only when expectedVersion still matches;
// a concurrent writer bumps the version and forces this caller to re-read.
// Idempotent repeats return the current item without a new audit entry.
func (s *Storage) ResolveItem(itemID string, action ResolutionAction, actor, notes string, expectedVersion int64) (*Item, error) {
	item, err := s.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	next, noop, err := transitionTarget(item.Status, action)
	if err != nil {
		return nil, err
	}
	if noop {
		return item, nil
	}

	if item.Version != expectedVersion {
		return nil, fmt.Errorf("item %s at version %d, expected %d: %w",
			itemID, item.Version, expectedVersion, ErrVersionConflict)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := tx.Exec(`
		UPDATE reconciliation_items
		SET status = ?, resolved_by = ?, resolved_at = ?, resolution_notes = ?,
		    version = version + 1
		WHERE id = ? AND version = ?
	`, string(next), actor, now, notes, itemID, expectedVersion)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if affected == 0 {
		// Someone moved the item between our read and write.
		_ = tx.Rollback()
		return nil, fmt.Errorf("item %s: %w", itemID, ErrVersionConflict)
	}

	_, err = tx.Exec(`
		INSERT INTO resolution_events (item_id, actor, prev_status, next_status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, itemID, actor, string(item.Status), string(next), notes, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetItem(itemID)
}

// ListResolutionEvents returns an item's audit trail, oldest first.
func (s *Storage) ListResolutionEvents(itemID string) ([]ResolutionEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, item_id, actor, prev_status, next_status, notes, created_at
		FROM resolution_events
		WHERE item_id = ?
		ORDER BY created_at ASC, id ASC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []ResolutionEvent
	for rows.Next() {
		var ev ResolutionEvent
		var prev, next string
		var notes sql.NullString
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.Actor, &prev, &next, &notes, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.PrevStatus = ledger.ResolutionStatus(prev)
		ev.NextStatus = ledger.ResolutionStatus(next)
		if notes.Valid {
			ev.Notes = notes.String
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var tier, invoiceData, posData, notes, resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	var status string

	err := row.Scan(
		&item.ID,
		&item.SessionID,
		&item.ItemType,
		&tier,
		&item.Confidence,
		&invoiceData,
		&posData,
		&item.AmountVariance,
		&item.QuantityVariance,
		&status,
		&notes,
		&resolvedBy,
		&resolvedAt,
		&item.CreatedAt,
		&item.Version,
	)
	if err != nil {
		return nil, err
	}

	item.Status = ledger.ResolutionStatus(status)
	if tier.Valid {
		item.MatchTier = tier.String
	}
	if invoiceData.Valid {
		item.InvoiceData = invoiceData.String
	}
	if posData.Valid {
		item.POSData = posData.String
	}
	if notes.Valid {
		item.ResolutionNotes = notes.String
	}
	if resolvedBy.Valid {
		item.ResolvedBy = resolvedBy.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		item.ResolvedAt = &t
	}

	return &item, nil
}
