package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lengolf/reconcile/internal/api"
	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/application/reconcile"
	"github.com/lengolf/reconcile/internal/domain/billing"
	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()

	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := reconcile.NewEngine(repo, logger)
	server := api.NewServer(api.DefaultConfig(), repo, engine, logger)
	return server, repo
}

func doJSON(t *testing.T, server *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func seedSessionWithItem(t *testing.T, repo *storage.MockRepository) (*storage.Session, *storage.Item) {
	t.Helper()

	session := &storage.Session{
		ID:                 uuid.NewString(),
		ReconciliationType: "restaurant",
		FileName:           "january.csv",
	}
	require.NoError(t, repo.CreateSession(session))

	item := &storage.Item{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		ItemType:   storage.ItemMatched,
		MatchTier:  "exact",
		Confidence: 1,
	}
	require.NoError(t, repo.SaveItems([]*storage.Item{item}))

	return session, item
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
}

func TestServer_ReconcileEndpoint(t *testing.T) {
	t.Run("runs a reconciliation", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/reconcile", dto.ReconcileRequest{
			ReconciliationType: "restaurant",
			FileName:           "january.csv",
			InvoiceRows: []map[string]string{
				{"date": "2025-01-05", "customer": "John Smith", "total_amount": "500"},
			},
			POSRows: []map[string]string{
				{"date": "2025-01-05", "customer": "John Smith", "amount": "500"},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ReconcileResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.NotEmpty(t, response.SessionID)
		assert.Equal(t, 1, response.Summary.MatchedCount)
		assert.Equal(t, 100.0, response.Summary.MatchRate)

		session, err := repo.GetSession(response.SessionID)
		require.NoError(t, err)
		assert.Equal(t, storage.SessionCompleted, session.Status)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/reconcile", dto.ReconcileRequest{
			ReconciliationType: "karaoke",
			InvoiceRows:        []map[string]string{{"date": "2025-01-05"}},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/reconcile", dto.ReconcileRequest{
			ReconciliationType: "restaurant",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_SessionEndpoints(t *testing.T) {
	t.Run("list and get", func(t *testing.T) {
		server, repo := newTestServer(t)
		session, _ := seedSessionWithItem(t, repo)

		rec := doJSON(t, server, http.MethodGet, "/api/sessions", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var list dto.SessionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		assert.Equal(t, 1, list.Count)

		rec = doJSON(t, server, http.MethodGet, "/api/sessions/"+session.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get unknown session is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/sessions/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list items with filters", func(t *testing.T) {
		server, repo := newTestServer(t)
		session, _ := seedSessionWithItem(t, repo)

		rec := doJSON(t, server, http.MethodGet,
			fmt.Sprintf("/api/sessions/%s/items?type=%s", session.ID, storage.ItemMatched), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var list dto.ItemListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		assert.Equal(t, 1, list.Count)

		rec = doJSON(t, server, http.MethodGet,
			fmt.Sprintf("/api/sessions/%s/items?status=approved", session.ID), nil)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		assert.Equal(t, 0, list.Count)
	})

	t.Run("items of unknown session is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/sessions/"+uuid.NewString()+"/items", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ItemResolution(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/approve", dto.ResolveRequest{
			ResolvedBy: "erin",
			Notes:      "checked against receipt",
			Version:    1,
		})

		assert.Equal(t, http.StatusOK, rec.Code)

		var resolved storage.Item
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resolved))
		assert.Equal(t, ledger.StatusApproved, resolved.Status)
		assert.Equal(t, int64(2), resolved.Version)
	})

	t.Run("stale version is 409", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)

		_, err := repo.ResolveItem(item.ID, storage.ActionDispute, "erin", "", 1)
		require.NoError(t, err)

		rec := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/adjust", dto.ResolveRequest{
			ResolvedBy: "noah",
			Version:    1,
		})

		assert.Equal(t, http.StatusConflict, rec.Code)

		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, dto.ErrCodeVersionConflict, apiErr.Code)
	})

	t.Run("invalid transition is 422", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/adjust", dto.ResolveRequest{
			ResolvedBy: "erin",
			Version:    1,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("idempotent repeat is 200", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)

		first := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/approve", dto.ResolveRequest{
			ResolvedBy: "erin", Version: 1,
		})
		require.Equal(t, http.StatusOK, first.Code)

		repeat := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/approve", dto.ResolveRequest{
			ResolvedBy: "noah", Version: 1,
		})
		assert.Equal(t, http.StatusOK, repeat.Code)

		var resolved storage.Item
		require.NoError(t, json.NewDecoder(repeat.Body).Decode(&resolved))
		assert.Equal(t, "erin", resolved.ResolvedBy)
	})

	t.Run("missing resolvedBy is 400", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)

		rec := doJSON(t, server, http.MethodPost, "/api/items/"+item.ID+"/approve", dto.ResolveRequest{Version: 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get item with audit trail", func(t *testing.T) {
		server, repo := newTestServer(t)
		_, item := seedSessionWithItem(t, repo)
		_, err := repo.ResolveItem(item.ID, storage.ActionApprove, "erin", "", 1)
		require.NoError(t, err)

		rec := doJSON(t, server, http.MethodGet, "/api/items/"+item.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ItemResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, item.ID, response.Item.ID)
		require.Len(t, response.Events, 1)
		assert.Equal(t, "erin", response.Events[0].Actor)
	})
}

func TestServer_StatsEndpoint(t *testing.T) {
	server, repo := newTestServer(t)
	seedSessionWithItem(t, repo)

	rec := doJSON(t, server, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats storage.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.UnresolvedItems)
}

func TestServer_SupplierEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/suppliers", dto.SupplierCreateRequest{
		Name:  "Bangkok Golf Supply Co.",
		TaxID: "0105561234567",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate tax ID is rejected with a conflict.
	rec = doJSON(t, server, http.MethodPost, "/api/suppliers", dto.SupplierCreateRequest{
		Name:  "Copycat Co.",
		TaxID: "0105561234567",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Name is required.
	rec = doJSON(t, server, http.MethodPost, "/api/suppliers", dto.SupplierCreateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/suppliers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var list dto.SupplierListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)
}

func TestServer_SettingsEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPut, "/api/settings", dto.SettingsUpdateRequest{
		"default_wht_rate": "5.00",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SettingsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "5.00", response.Settings["default_wht_rate"])

	// An empty update is rejected.
	rec = doJSON(t, server, http.MethodPut, "/api/settings", dto.SettingsUpdateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_InvoiceCompute(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/invoices/compute", dto.InvoiceComputeRequest{
		Items: []billing.LineItem{
			{Description: "Coaching package", Amount: 10000},
			{Description: "Range balls", Amount: 2500},
		},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var totals billing.Totals
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&totals))
	assert.InDelta(t, 12500.0, totals.Subtotal, 0.001)
	assert.InDelta(t, 3.0, totals.TaxRate, 0.001)
	assert.InDelta(t, 375.0, totals.Tax, 0.001)
	assert.InDelta(t, 12125.0, totals.Total, 0.001)

	// An explicit rate overrides the stored default.
	rate := 5.0
	rec = doJSON(t, server, http.MethodPost, "/api/invoices/compute", dto.InvoiceComputeRequest{
		TaxRate: &rate,
		Items:   []billing.LineItem{{Description: "Lessons", Amount: 1000}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&totals))
	assert.InDelta(t, 50.0, totals.Tax, 0.001)
	assert.InDelta(t, 950.0, totals.Total, 0.001)

	// No valid line items.
	rec = doJSON(t, server, http.MethodPost, "/api/invoices/compute", dto.InvoiceComputeRequest{
		Items: []billing.LineItem{{Description: "", Amount: 100}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Out-of-range rate.
	bad := 120.0
	rec = doJSON(t, server, http.MethodPost, "/api/invoices/compute", dto.InvoiceComputeRequest{
		TaxRate: &bad,
		Items:   []billing.LineItem{{Description: "Lessons", Amount: 1000}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
