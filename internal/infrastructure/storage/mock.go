package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores everything in maps, making tests fast and isolated.
type MockRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	items    map[string]*Item
	events   map[string][]ResolutionEvent
	supps    map[int64]*Supplier
	settings map[string]string
	nextID   int64

	// Hooks for test assertions
	CreateSessionCalled bool
	SaveItemsCalled     bool
	ResolveItemCalled   bool
	LastSavedSession    *Session
	LastSavedItems      []*Item

	// Error injection for testing error paths
	CreateSessionErr error
	SaveItemsErr     error
	ResolveItemErr   error
	GetStatsErr      error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		sessions: make(map[string]*Session),
		items:    make(map[string]*Item),
		events:   make(map[string][]ResolutionEvent),
		supps:    make(map[int64]*Supplier),
		settings: map[string]string{"default_wht_rate": "3.00"},
		nextID:   1,
	}
}

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) CreateSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateSessionCalled = true
	if m.CreateSessionErr != nil {
		return m.CreateSessionErr
	}

	if session.Status == "" {
		session.Status = SessionProcessing
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	copied := *session
	m.sessions[session.ID] = &copied
	m.LastSavedSession = &copied
	return nil
}

func (m *MockRepository) CompleteSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[session.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}

	now := time.Now().UTC()
	copied := *session
	copied.Status = SessionCompleted
	copied.CompletedAt = &now
	copied.CreatedAt = stored.CreatedAt
	m.sessions[session.ID] = &copied
	session.Status = copied.Status
	session.CompletedAt = copied.CompletedAt
	return nil
}

func (m *MockRepository) FailSession(sessionID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	now := time.Now().UTC()
	stored.Status = SessionFailed
	stored.ErrorMessage = errorMessage
	stored.CompletedAt = &now
	return nil
}

func (m *MockRepository) GetSession(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	copied := *stored
	return &copied, nil
}

func (m *MockRepository) ListSessions(limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{TypeStats: make(map[string]TypeStats)}
	var rateSum float64
	for _, s := range m.sessions {
		stats.TotalSessions++
		switch s.Status {
		case SessionCompleted:
			stats.CompletedCount++
			rateSum += s.MatchRate
		case SessionFailed:
			stats.FailedCount++
		}
	}
	if stats.CompletedCount > 0 {
		stats.AverageMatchRate = rateSum / float64(stats.CompletedCount)
	}
	for _, item := range m.items {
		switch item.Status {
		case ledger.StatusUnresolved:
			stats.UnresolvedItems++
		case ledger.StatusDisputed:
			stats.DisputedItems++
		}
	}
	return stats, nil
}

func (m *MockRepository) SaveItems(items []*Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveItemsCalled = true
	if m.SaveItemsErr != nil {
		return m.SaveItemsErr
	}

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
		copied := *item
		m.items[item.ID] = &copied
	}
	m.LastSavedItems = items
	return nil
}

func (m *MockRepository) GetItem(itemID string) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getItemLocked(itemID)
}

func (m *MockRepository) getItemLocked(itemID string) (*Item, error) {
	stored, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	copied := *stored
	return &copied, nil
}

func (m *MockRepository) ListItems(sessionID string, filter ItemFilter) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []Item
	for _, item := range m.items {
		if item.SessionID != sessionID {
			continue
		}
		if filter.ItemType != "" && item.ItemType != filter.ItemType {
			continue
		}
		if filter.Status != "" && string(item.Status) != filter.Status {
			continue
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if filter.Limit > 0 {
		if filter.Offset < len(items) {
			items = items[filter.Offset:]
		} else {
			items = nil
		}
		if len(items) > filter.Limit {
			items = items[:filter.Limit]
		}
	}
	return items, nil
}

func (m *MockRepository) ResolveItem(itemID string, action ResolutionAction, actor, notes string, expectedVersion int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResolveItemCalled = true
	if m.ResolveItemErr != nil {
		return nil, m.ResolveItemErr
	}

	stored, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}

	next, noop, err := transitionTarget(stored.Status, action)
	if err != nil {
		return nil, err
	}
	if noop {
		copied := *stored
		return &copied, nil
	}

	if stored.Version != expectedVersion {
		return nil, fmt.Errorf("item %s at version %d, expected %d: %w",
			itemID, stored.Version, expectedVersion, ErrVersionConflict)
	}

	now := time.Now().UTC()
	m.events[itemID] = append(m.events[itemID], ResolutionEvent{
		ID:         int64(len(m.events[itemID]) + 1),
		ItemID:     itemID,
		Actor:      actor,
		PrevStatus: stored.Status,
		NextStatus: next,
		Notes:      notes,
		CreatedAt:  now,
	})

	stored.Status = next
	stored.ResolvedBy = actor
	stored.ResolvedAt = &now
	stored.ResolutionNotes = notes
	stored.Version++

	copied := *stored
	return &copied, nil
}

func (m *MockRepository) ListResolutionEvents(itemID string) ([]ResolutionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ResolutionEvent(nil), m.events[itemID]...), nil
}

func (m *MockRepository) CreateSupplier(supplier *Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if supplier.TaxID != "" {
		for _, existing := range m.supps {
			if existing.TaxID == supplier.TaxID {
				return fmt.Errorf("tax id %s: %w", supplier.TaxID, ErrDuplicateTaxID)
			}
		}
	}

	supplier.ID = m.nextID
	m.nextID++
	copied := *supplier
	m.supps[supplier.ID] = &copied
	return nil
}

func (m *MockRepository) GetSupplier(id int64) (*Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.supps[id]
	if !ok {
		return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
	}
	copied := *stored
	return &copied, nil
}

func (m *MockRepository) ListSuppliers() ([]Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	suppliers := make([]Supplier, 0, len(m.supps))
	for _, s := range m.supps {
		suppliers = append(suppliers, *s)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

func (m *MockRepository) GetSetting(key, fallback string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.settings[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func (m *MockRepository) GetAllSettings() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

func (m *MockRepository) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[key] = value
	return nil
}
