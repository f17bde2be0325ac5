package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lengolf/reconcile/internal/api/dto"
	"github.com/lengolf/reconcile/internal/application/reconcile"
	"github.com/lengolf/reconcile/internal/domain/ledger"
	"github.com/lengolf/reconcile/internal/domain/matcher"
	"github.com/lengolf/reconcile/internal/infrastructure/storage"
)

// ReconcileHandler runs reconciliations synchronously over request payloads.
type ReconcileHandler struct {
	*Base
	engine *reconcile.Engine
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(repo storage.Repository, engine *reconcile.Engine) *ReconcileHandler {
	return &ReconcileHandler{
		Base:   NewBase(repo),
		engine: engine,
	}
}

// Run handles POST /api/reconcile.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	recType := ledger.ReconciliationType(req.ReconciliationType)
	if !recType.Valid() {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("reconciliationType must be restaurant or coaching"))
		return
	}
	if len(req.InvoiceRows) == 0 && len(req.POSRows) == 0 {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("at least one of invoiceRows or posRows must be non-empty"))
		return
	}

	opts := matcher.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	result, err := h.engine.Run(r.Context(), reconcile.Input{
		Type:        recType,
		FileName:    req.FileName,
		InvoiceRows: req.InvoiceRows,
		POSRows:     req.POSRows,
		Options:     opts,
	})
	if err != nil {
		var rerr *reconcile.ReconciliationError
		if errors.As(err, &rerr) && rerr.Stage == "validate" {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(rerr.Error()))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ReconcileResponse{
		SessionID:      result.SessionID,
		Summary:        result.Summary,
		ParseErrors:    result.ParseErrors,
		DateRangeStart: result.DateRangeStart,
		DateRangeEnd:   result.DateRangeEnd,
		ProcessingMs:   result.ProcessingTime.Milliseconds(),
	})
}
