package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
)

type OrderService interface {
	Initiate(ctx context.Context, guestID string, req orders.InitiateRequest) (domain.InitiatedOrder, error)
	GetOrder(ctx context.Context, guestID, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders OrderService
}

func NewOrdersHandler(orders OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

func (h *OrdersHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req orders.InitiateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	initiated, err := h.orders.Initiate(r.Context(), guestIDFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, initiated)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is required")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), guestIDFromContext(r.Context()), orderID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
