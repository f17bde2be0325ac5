package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// ItemsHandler handles reconciliation item HTTP requests, including the
// staff resolution workflow.
type ItemsHandler struct {
	*Base
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(repo storage.Repository) *ItemsHandler {
	return &ItemsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/items/{id} - returns one item with its audit trail.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	item, err := h.repo.GetItem(id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("item"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	events, err := h.repo.ListResolutionEvents(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ItemResponse{
		Item:   *item,
		Events: events,
	})
}

// Approve handles POST /api/items/{id}/approve.
func (h *ItemsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, storage.ActionApprove)
}

// Dispute handles POST /api/items/{id}/dispute.
func (h *ItemsHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, storage.ActionDispute)
}

// Adjust handles POST /api/items/{id}/adjust.
func (h *ItemsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, storage.ActionAdjust)
}

// resolve applies a resolution action. Idempotent repeats return 200 with
// the current state; a stale version returns 409 and the client must
// re-read; an illegal transition returns 422.
func (h *ItemsHandler) resolve(w http.ResponseWriter, r *http.Request, action storage.ResolutionAction) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	var req dto.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.ResolvedBy == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("resolvedBy is required"))
		return
	}

	item, err := h.repo.ResolveItem(id, action, req.ResolvedBy, req.Notes, req.Version)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("item"))
		return
	case errors.Is(err, storage.ErrVersionConflict):
		h.WriteError(w, http.StatusConflict, dto.VersionConflictError())
		return
	case errors.Is(err, storage.ErrInvalidTransition):
		h.WriteError(w, http.StatusUnprocessableEntity, dto.InvalidTransitionError(err.Error()))
		return
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, item)
}
