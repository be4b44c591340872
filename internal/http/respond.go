package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
	"github.com/RohitVelivela/vijaybrothers/internal/payment/gateway"
	"github.com/RohitVelivela/vijaybrothers/internal/shipping"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrQuantityLimit, http.StatusBadRequest, "quantity_limit"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{shipping.ErrNoProducts, http.StatusBadRequest, "no_products"},
	{orders.ErrInvalidOrder, http.StatusBadRequest, "invalid_request"},
	{payment.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},

	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{payment.ErrPaymentOrderNotFound, http.StatusNotFound, "payment_order_not_found"},

	{domain.ErrStaleCart, http.StatusConflict, "stale_cart"},
	{orders.ErrDuplicateReceipt, http.StatusConflict, "receipt_conflict"},
	{payment.ErrDuplicateReceipt, http.StatusConflict, "receipt_conflict"},
	{payment.ErrReceiptConflict, http.StatusConflict, "receipt_conflict"},
	{payment.ErrOrderAlreadyPaid, http.StatusConflict, "already_paid"},
	{orders.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{orders.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},

	{payment.ErrAmountMismatch, http.StatusUnprocessableEntity, "amount_mismatch"},

	{gateway.ErrUnexpectedResponse, http.StatusBadGateway, "bad_gateway"},
	{gateway.ErrGatewayUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// respondServiceError translates a service error into the JSON error body.
// Anything unrecognised is logged and reported as a 500 without details.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: verr.Fields,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.FromContext(r.Context()).Warn("upstream failure", zap.Error(err))
			}
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}

	logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
