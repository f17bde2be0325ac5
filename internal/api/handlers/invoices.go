package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/domain/billing"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// InvoicesHandler computes supplier invoice totals.
type InvoicesHandler struct {
	*Base
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(repo storage.Repository) *InvoicesHandler {
	return &InvoicesHandler{
		Base: NewBase(repo),
	}
}

// Compute handles POST /api/invoices/compute. When the request carries no
// tax rate, the stored default withholding tax rate applies.
func (h *InvoicesHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	var rate float64
	if req.TaxRate != nil {
		rate = *req.TaxRate
	} else {
		raw, err := h.repo.GetSetting("default_wht_rate", "3.00")
		if err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
		rate, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
	}
	if rate < 0 || rate > 100 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("taxRate must be between 0 and 100"))
		return
	}

	totals, err := billing.Invoice{TaxRate: rate, Items: req.Items}.Compute()
	if err != nil {
		if errors.Is(err, billing.ErrNoLineItems) {
			h.WriteError(w, http.StatusUnprocessableEntity, dto.ValidationError(err.Error()))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, totals)
}
