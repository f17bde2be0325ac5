package storage

import "errors"

// Sentinel errors returned by repository implementations.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a resolution write carries a
	// stale version. The caller must re-read the item before retrying;
	// last-writer-wins is not acceptable on an audit trail.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidTransition is returned for a resolution action the state
	// machine does not allow from the item's current status.
	ErrInvalidTransition = errors.New("invalid resolution transition")

	// ErrDuplicateTaxID is returned when a supplier's tax ID is already
	// registered.
	ErrDuplicateTaxID = errors.New("duplicate supplier tax id")
)

// Repository defines the complete storage interface. It allows swapping
// implementations (SQLite here, anything SQL-shaped elsewhere) and makes
// testing with mocks straightforward.
type Repository interface {
	SessionRepository
	ItemRepository
	SupplierRepository
	SettingsRepository
	Close() error
}

// SessionRepository handles reconciliation session persistence.
type SessionRepository interface {
	// CreateSession inserts a session in processing state.
	CreateSession(session *Session) error

	// CompleteSession writes the final figures and marks the session
	// completed.
	CompleteSession(session *Session) error

	// FailSession marks the session failed with an aggregated error
	// message. Items already written are retained for diagnosis.
	FailSession(sessionID, errorMessage string) error

	// GetSession retrieves a session by ID. Returns ErrNotFound when
	// absent.
	GetSession(sessionID string) (*Session, error)

	// ListSessions returns recent sessions, newest first.
	ListSessions(limit int) ([]Session, error)

	// GetStats returns cross-session aggregates.
	GetStats() (*Stats, error)
}

// ItemRepository handles reconciliation items and the resolution state
// machine.
type ItemRepository interface {
	// SaveItems inserts all items of a session in one transaction.
	SaveItems(items []*Item) error

	// GetItem retrieves an item by ID. Returns ErrNotFound when absent.
	GetItem(itemID string) (*Item, error)

	// ListItems returns a session's items filtered by item type and
	// resolution status (empty filter matches all).
	ListItems(sessionID string, filter ItemFilter) ([]Item, error)

	// ResolveItem applies a staff resolution action under optimistic
	// concurrency. Re-issuing an already-satisfied action is an
	// idempotent no-op returning the current item without a new audit
	// entry. A stale expectedVersion yields ErrVersionConflict; an
	// illegal action yields ErrInvalidTransition.
	ResolveItem(itemID string, action ResolutionAction, actor, notes string, expectedVersion int64) (*Item, error)

	// ListResolutionEvents returns an item's audit trail, oldest first.
	ListResolutionEvents(itemID string) ([]ResolutionEvent, error)
}

// ItemFilter narrows ListItems results.
type ItemFilter struct {
	ItemType string // matched, invoice_only, pos_only; empty = all
	Status   string // unresolved, approved, disputed, adjusted; empty = all
	Limit    int    // 0 = no limit
	Offset   int
}

// ResolutionAction is a staff action against the resolution state machine.
type ResolutionAction string

const (
	ActionApprove ResolutionAction = "approve"
	ActionDispute ResolutionAction = "dispute"
	ActionAdjust  ResolutionAction = "adjust"
)

// SupplierRepository handles supplier records for the billing workflow.
type SupplierRepository interface {
	// CreateSupplier inserts a supplier. A duplicate tax ID yields
	// ErrDuplicateTaxID.
	CreateSupplier(supplier *Supplier) error

	// GetSupplier retrieves a supplier by ID.
	GetSupplier(id int64) (*Supplier, error)

	// ListSuppliers returns all suppliers ordered by name.
	ListSuppliers() ([]Supplier, error)
}

// SettingsRepository is a key/value store for business settings
// (identity, bank details, default withholding tax rate).
type SettingsRepository interface {
	// GetSetting returns the value for key, or fallback when unset.
	GetSetting(key, fallback string) (string, error)

	// GetAllSettings returns every setting.
	GetAllSettings() (map[string]string, error)

	// SetSetting upserts a setting.
	SetSetting(key, value string) error
}
