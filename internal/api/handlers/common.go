package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"marginApp/internal/domain"
	"marginApp/internal/ports"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PositionService is the lifecycle surface the margin endpoints need.
type PositionService interface {
	Open(ctx context.Context, userID uuid.UUID, borrowedAmount decimal.Decimal, multiplier int, transactionID string) (*domain.MarginPosition, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.PositionPatch) (*domain.MarginPosition, error)
	Close(ctx context.Context, id uuid.UUID) (*domain.CloseResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MarginPosition, error)
}

// StatisticsProvider backs the dashboard endpoints.
type StatisticsProvider interface {
	Statistic(ctx context.Context) (*domain.Statistic, error)
	LiquidatedPositions(ctx context.Context) ([]*domain.MarginPosition, error)
}

// ErrorResponse is the error body for every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidState   = "invalid_state"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal_error"
)

// PositionResponse is the JSON view of a margin position.
// BorrowedAmount is encoded as a string to keep it exact.
type PositionResponse struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	BorrowedAmount decimal.Decimal `json:"borrowed_amount"`
	Multiplier     int             `json:"multiplier"`
	TransactionID  string          `json:"transaction_id"`
	Status         string          `json:"status"`
	LiquidatedAt   *time.Time      `json:"liquidated_at"`
}

// NewPositionResponse builds the JSON view of p.
func NewPositionResponse(p *domain.MarginPosition) PositionResponse {
	return PositionResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		BorrowedAmount: p.BorrowedAmount,
		Multiplier:     p.Multiplier,
		TransactionID:  p.TransactionID,
		Status:         string(p.Status),
		LiquidatedAt:   p.LiquidatedAt,
	}
}

func newPositionListResponse(list []*domain.MarginPosition) []PositionResponse {
	out := make([]PositionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewPositionResponse(p))
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps core error kinds onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid request", Code: CodeInvalidRequest, Details: err.Error()})
	case errors.Is(err, ports.ErrInvalidState):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "position is not in a valid state for this operation", Code: CodeInvalidState, Details: err.Error()})
	case errors.Is(err, ports.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "margin position not found")
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("id must be a valid UUID")
	}
	return id, nil
}
