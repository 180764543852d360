package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marginApp/internal/domain"
	"marginApp/internal/ports"
	"marginApp/internal/risk"
)

// OpenPositionRequest is the body of POST /api/margin/open.
type OpenPositionRequest struct {
	UserID         string          `json:"user_id"`
	BorrowedAmount decimal.Decimal `json:"borrowed_amount"`
	Multiplier     int             `json:"multiplier"`
	TransactionID  string          `json:"transaction_id"`
}

// UpdatePositionRequest is the body of POST /api/margin/{id}. Absent fields are left unchanged.
type UpdatePositionRequest struct {
	BorrowedAmount *decimal.Decimal `json:"borrowed_amount"`
	Multiplier     *int             `json:"multiplier"`
}

// ClosePositionResponse is returned by POST /api/margin/close/{id}.
type ClosePositionResponse struct {
	PositionID    uuid.UUID `json:"position_id"`
	Status        string    `json:"status"`
	AlreadyClosed bool      `json:"already_closed"`
}

// PositionHandler serves the margin position endpoints.
type PositionHandler struct {
	service PositionService
	logger  ports.Logger
	risk    *risk.RiskManager
}

// NewPositionHandler creates a PositionHandler. Requests are checked by riskManager before reaching service.
func NewPositionHandler(service PositionService, logger ports.Logger, riskManager *risk.RiskManager) *PositionHandler {
	return &PositionHandler{service: service, logger: logger, risk: riskManager}
}

// Open handles POST /api/margin/open.
func (h *PositionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, "user_id must be a valid UUID")
		return
	}
	if err := h.risk.ValidateOpen(req.BorrowedAmount, req.Multiplier); err != nil {
		respondServiceError(w, err)
		return
	}

	pos, err := h.service.Open(r.Context(), userID, req.BorrowedAmount, req.Multiplier, req.TransactionID)
	if err != nil {
		h.logFailure(r, err, "open")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewPositionResponse(pos))
}

// Update handles POST /api/margin/{id}.
func (h *PositionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, err.Error())
		return
	}
	var req UpdatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, "invalid request body")
		return
	}
	patch := domain.PositionPatch{BorrowedAmount: req.BorrowedAmount, Multiplier: req.Multiplier}
	if err := h.risk.ValidatePatch(patch); err != nil {
		respondServiceError(w, err)
		return
	}

	pos, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.logFailure(r, err, "update")
		respondServiceError(w, err)
		return
	}
	if pos == nil {
		respondServiceError(w, ports.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, NewPositionResponse(pos))
}

// Close handles POST /api/margin/close/{id}.
func (h *PositionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, err.Error())
		return
	}
	result, err := h.service.Close(r.Context(), id)
	if err != nil {
		h.logFailure(r, err, "close")
		respondServiceError(w, err)
		return
	}
	if result == nil {
		respondServiceError(w, ports.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, ClosePositionResponse{
		PositionID:    result.PositionID,
		Status:        string(result.Status),
		AlreadyClosed: result.AlreadyClosed(),
	})
}

// Get handles GET /api/margin/{id}.
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, CodeInvalidRequest, err.Error())
		return
	}
	pos, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logFailure(r, err, "get")
		respondServiceError(w, err)
		return
	}
	if pos == nil {
		respondServiceError(w, ports.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, NewPositionResponse(pos))
}

func (h *PositionHandler) logFailure(r *http.Request, err error, operation string) {
	if h.logger == nil {
		return
	}
	h.logger.Warn(r.Context(), "Margin request failed", map[string]interface{}{
		"operation": operation,
		"path":      r.URL.Path,
		"error":     err.Error(),
	})
}
