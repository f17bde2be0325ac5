package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// SuppliersHandler handles supplier HTTP requests.
type SuppliersHandler struct {
	*Base
}

// NewSuppliersHandler creates a new suppliers handler.
func NewSuppliersHandler(repo storage.Repository) *SuppliersHandler {
	return &SuppliersHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/suppliers.
func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.repo.ListSuppliers()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(w, http.StatusOK, dto.SupplierListResponse{
		Suppliers: suppliers,
		Count:     len(suppliers),
	})
}

// Create handles POST /api/suppliers.
func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SupplierCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("name is required"))
		return
	}

	supplier := &storage.Supplier{
		Name:               req.Name,
		AddressLine1:       req.AddressLine1,
		AddressLine2:       req.AddressLine2,
		TaxID:              req.TaxID,
		DefaultDescription: req.DefaultDescription,
		DefaultUnitPrice:   req.DefaultUnitPrice,
	}

	if err := h.repo.CreateSupplier(supplier); err != nil {
		if errors.Is(err, storage.ErrDuplicateTaxID) {
			h.WriteError(w, http.StatusConflict, dto.DuplicateError("a supplier with this tax ID already exists"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, supplier)
}
