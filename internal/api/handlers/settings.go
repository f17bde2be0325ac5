package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// SettingsHandler handles business settings HTTP requests.
type SettingsHandler struct {
	*Base
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(repo storage.Repository) *SettingsHandler {
	return &SettingsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.GetAllSettings()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.SettingsResponse{Settings: settings})
}

// Update handles PUT /api/settings - upserts the provided keys.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if len(req) == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("at least one setting is required"))
		return
	}

	for key, value := range req {
		if key == "" {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("setting keys must be non-empty"))
			return
		}
		if err := h.repo.SetSetting(key, value); err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
	}

	settings, err := h.repo.GetAllSettings()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.SettingsResponse{Settings: settings})
}
