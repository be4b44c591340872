package http

import (
	"context"
	"net/http"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type ShippingCalculator interface {
	Calculate(ctx context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error)
}

type ShippingHandler struct {
	shipping ShippingCalculator
}

func NewShippingHandler(shipping ShippingCalculator) *ShippingHandler {
	return &ShippingHandler{shipping: shipping}
}

type CalculateShippingRequestDTO struct {
	ProductIDs []int64      `json:"productIds"`
	OrderTotal domain.Money `json:"orderTotal"`
}

func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateShippingRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderTotal < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "orderTotal must not be negative")
		return
	}

	cfg, err := h.shipping.Calculate(r.Context(), req.ProductIDs, req.OrderTotal)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}
