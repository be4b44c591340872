package http

import (
	"context"
	"net/http"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
)

type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, guestID string, req payment.CreateRequest) (*domain.PaymentOrder, error)
	Verify(ctx context.Context, guestID string, v domain.PaymentVerification) (domain.VerificationResult, error)
	KeyID() string
}

type PaymentHandler struct {
	payments PaymentService
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type KeyResponseDTO struct {
	KeyID string `json:"keyId"`
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req payment.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	po, err := h.payments.CreatePaymentOrder(r.Context(), guestIDFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// Verify answers 200 for both outcomes; an unverified signature is a result,
// not a transport error.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentVerification
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.payments.Verify(r.Context(), guestIDFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) Key(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, KeyResponseDTO{KeyID: h.payments.KeyID()})
}
