package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lengolf/reconcile/internal/domain/ledger"
)

// seedItem writes one unresolved item and returns it re-read from the store.
func seedItem(t *testing.T, store *Storage, itemType string) *Item {
	t.Helper()

	session := newTestSession("restaurant")
	require.NoError(t, store.CreateSession(session))

	item := &Item{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		ItemType:    itemType,
		MatchTier:   "exact",
		Confidence:  1,
		InvoiceData: `{"customer":"John Smith"}`,
		POSData:     `{"customer":"John Smith"}`,
	}
	require.NoError(t, store.SaveItems([]*Item{item}))

	saved, err := store.GetItem(item.ID)
	require.NoError(t, err)
	return saved
}

func TestStorage_SaveItems_Defaults(t *testing.T) {
	store := newTestStorage(t)
	item := seedItem(t, store, ItemMatched)

	assert.Equal(t, ledger.StatusUnresolved, item.Status)
	assert.Equal(t, int64(1), item.Version)
	assert.False(t, item.CreatedAt.IsZero())
	assert.Equal(t, `{"customer":"John Smith"}`, item.InvoiceData)
}

func TestStorage_ListItems_Filters(t *testing.T) {
	store := newTestStorage(t)

	session := newTestSession("restaurant")
	require.NoError(t, store.CreateSession(session))

	items := []*Item{
		{ID: uuid.NewString(), SessionID: session.ID, ItemType: ItemMatched, MatchTier: "exact", Confidence: 1},
		{ID: uuid.NewString(), SessionID: session.ID, ItemType: ItemMatched, MatchTier: "fuzzy_name", Confidence: 0.8},
		{ID: uuid.NewString(), SessionID: session.ID, ItemType: ItemInvoiceOnly},
		{ID: uuid.NewString(), SessionID: session.ID, ItemType: ItemPOSOnly},
	}
	require.NoError(t, store.SaveItems(items))
	_, err := store.ResolveItem(items[0].ID, ActionApprove, "erin", "", 1)
	require.NoError(t, err)

	all, err := store.ListItems(session.ID, ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	matched, err := store.ListItems(session.ID, ItemFilter{ItemType: ItemMatched})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	unresolved, err := store.ListItems(session.ID, ItemFilter{Status: string(ledger.StatusUnresolved)})
	require.NoError(t, err)
	assert.Len(t, unresolved, 3)

	approvedMatched, err := store.ListItems(session.ID, ItemFilter{
		ItemType: ItemMatched,
		Status:   string(ledger.StatusApproved),
	})
	require.NoError(t, err)
	assert.Len(t, approvedMatched, 1)

	page, err := store.ListItems(session.ID, ItemFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestStorage_ResolveItem_Approve(t *testing.T) {
	store := newTestStorage(t)
	item := seedItem(t, store, ItemMatched)

	resolved, err := store.ResolveItem(item.ID, ActionApprove, "erin", "looks right", item.Version)
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusApproved, resolved.Status)
	assert.Equal(t, "erin", resolved.ResolvedBy)
	assert.Equal(t, "looks right", resolved.ResolutionNotes)
	assert.Equal(t, item.Version+1, resolved.Version)
	require.NotNil(t, resolved.ResolvedAt)

	events, err := store.ListResolutionEvents(item.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ledger.StatusUnresolved, events[0].PrevStatus)
	assert.Equal(t, ledger.StatusApproved, events[0].NextStatus)
	assert.Equal(t, "erin", events[0].Actor)
}

func TestStorage_ResolveItem_DisputeThenAdjust(t *testing.T) {
	store := newTestStorage(t)
	item := seedItem(t, store, ItemMatched)

	disputed, err := store.ResolveItem(item.ID, ActionDispute, "erin", "amount off", 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDisputed, disputed.Status)

	adjusted, err := store.ResolveItem(item.ID, ActionAdjust, "noah", "corrected in POS", 2)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusAdjusted, adjusted.Status)
	assert.Equal(t, int64(3), adjusted.Version)

	events, err := store.ListResolutionEvents(item.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.StatusDisputed, events[0].NextStatus)
	assert.Equal(t, ledger.StatusAdjusted, events[1].NextStatus)
}

func TestStorage_ResolveItem_IdempotentRepeat(t *testing.T) {
	store := newTestStorage(t)
	item := seedItem(t, store, ItemMatched)

	first, err := store.ResolveItem(item.ID, ActionApprove, "erin", "", 1)
	require.NoError(t, err)

	// Repeating a satisfied action succeeds without a write: same version,
	// no new audit entry, even with a stale expected version.
	repeat, err := store.ResolveItem(item.ID, ActionApprove, "noah", "", 1)
	require.NoError(t, err)
	assert.Equal(t, first.Version, repeat.Version)
	assert.Equal(t, "erin", repeat.ResolvedBy)

	events, err := store.ListResolutionEvents(item.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStorage_ResolveItem_InvalidTransitions(t *testing.T) {
	store := newTestStorage(t)

	t.Run("adjust from unresolved", func(t *testing.T) {
		item := seedItem(t, store, ItemMatched)
		_, err := store.ResolveItem(item.ID, ActionAdjust, "erin", "", 1)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("dispute an approved item", func(t *testing.T) {
		item := seedItem(t, store, ItemMatched)
		_, err := store.ResolveItem(item.ID, ActionApprove, "erin", "", 1)
		require.NoError(t, err)

		_, err = store.ResolveItem(item.ID, ActionDispute, "noah", "", 2)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("approve an adjusted item", func(t *testing.T) {
		item := seedItem(t, store, ItemMatched)
		_, err := store.ResolveItem(item.ID, ActionDispute, "erin", "", 1)
		require.NoError(t, err)
		_, err = store.ResolveItem(item.ID, ActionAdjust, "erin", "", 2)
		require.NoError(t, err)

		_, err = store.ResolveItem(item.ID, ActionApprove, "noah", "", 3)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStorage_ResolveItem_VersionConflict(t *testing.T) {
	store := newTestStorage(t)
	item := seedItem(t, store, ItemMatched)

	_, err := store.ResolveItem(item.ID, ActionDispute, "erin", "", 1)
	require.NoError(t, err)

	// A second writer still holding version 1 must be rejected.
	_, err = store.ResolveItem(item.ID, ActionAdjust, "noah", "", 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The item is untouched by the rejected write.
	got, err := store.GetItem(item.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDisputed, got.Status)
	assert.Equal(t, int64(2), got.Version)

	events, err := store.ListResolutionEvents(item.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStorage_ResolveItem_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.ResolveItem("missing", ActionApprove, "erin", "", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionTarget(t *testing.T) {
	tests := []struct {
		current ledger.ResolutionStatus
		action  ResolutionAction
		next    ledger.ResolutionStatus
		noop    bool
		wantErr bool
	}{
		{ledger.StatusUnresolved, ActionApprove, ledger.StatusApproved, false, false},
		{ledger.StatusUnresolved, ActionDispute, ledger.StatusDisputed, false, false},
		{ledger.StatusUnresolved, ActionAdjust, "", false, true},
		{ledger.StatusApproved, ActionApprove, ledger.StatusApproved, true, false},
		{ledger.StatusApproved, ActionDispute, "", false, true},
		{ledger.StatusApproved, ActionAdjust, "", false, true},
		{ledger.StatusDisputed, ActionDispute, ledger.StatusDisputed, true, false},
		{ledger.StatusDisputed, ActionAdjust, ledger.StatusAdjusted, false, false},
		{ledger.StatusDisputed, ActionApprove, "", false, true},
		{ledger.StatusAdjusted, ActionAdjust, ledger.StatusAdjusted, true, false},
		{ledger.StatusAdjusted, ActionApprove, "", false, true},
	}

	for _, tt := range tests {
		next, noop, err := transitionTarget(tt.current, tt.action)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s + %s", tt.current, tt.action)
			continue
		}
		require.NoError(t, err, "%s + %s", tt.current, tt.action)
		assert.Equal(t, tt.next, next, "%s + %s", tt.current, tt.action)
		assert.Equal(t, tt.noop, noop, "%s + %s", tt.current, tt.action)
	}
}
