package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/RohitVelivela/vijaybrothers/internal/cart/service"
	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type CartService interface {
	GetCart(ctx context.Context, guestID string) (domain.CartView, error)
	AddItem(ctx context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error)
	UpdateQuantity(ctx context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error)
	RemoveItem(ctx context.Context, guestID string, productID int64, expected int64) (domain.CartView, error)
	ClearCart(ctx context.Context, guestID string, expected int64) (domain.CartView, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), guestIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId must be positive")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	view, err := h.carts.AddItem(r.Context(), guestIDFromContext(r.Context()), req.ProductID, req.Quantity, expected)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, http.StatusOK, view)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not be negative")
		return
	}

	view, err := h.carts.UpdateQuantity(r.Context(), guestIDFromContext(r.Context()), productID, req.Quantity, expected)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}

	view, err := h.carts.RemoveItem(r.Context(), guestIDFromContext(r.Context()), productID, expected)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, http.StatusOK, view)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}

	view, err := h.carts.ClearCart(r.Context(), guestIDFromContext(r.Context()), expected)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondCart(w, http.StatusOK, view)
}

func respondCart(w http.ResponseWriter, status int, view domain.CartView) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(view.Version, 10)))
	respondJSON(w, status, view)
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return 0, false
	}
	return productID, true
}

// expectedVersion reads If-Match. A missing header or "*" means the caller
// does not care which version it overwrites.
func expectedVersion(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return service.AnyVersion, true
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		respondError(w, http.StatusBadRequest, "invalid_version", "If-Match must carry a cart version")
		return 0, false
	}
	return version, true
}
