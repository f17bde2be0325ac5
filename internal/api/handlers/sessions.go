package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// SessionsHandler handles reconciliation session HTTP requests.
type SessionsHandler struct {
	*Base
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(repo storage.Repository) *SessionsHandler {
	return &SessionsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/sessions - returns recent sessions.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)

	sessions, err := h.repo.ListSessions(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if sessions == nil {
		sessions = []storage.Session{}
	}

	h.WriteJSON(w, http.StatusOK, dto.SessionListResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

// Get handles GET /api/sessions/{id} - returns a single session.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("session ID is required"))
		return
	}

	session, err := h.repo.GetSession(id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("session"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, session)
}

// ListItems handles GET /api/sessions/{id}/items - returns a session's
// items, optionally filtered by type and status.
func (h *SessionsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("session ID is required"))
		return
	}

	// 404 on unknown session rather than an empty list
	if _, err := h.repo.GetSession(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("session"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	filter := storage.ItemFilter{
		ItemType: r.URL.Query().Get("type"),
		Status:   r.URL.Query().Get("status"),
		Limit:    ParseIntParam(r, "limit", 0),
		Offset:   ParseIntParam(r, "offset", 0),
	}

	items, err := h.repo.ListItems(id, filter)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if items == nil {
		items = []storage.Item{}
	}

	h.WriteJSON(w, http.StatusOK, dto.ItemListResponse{
		Items: items,
		Count: len(items),
	})
}
