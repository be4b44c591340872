package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
)

const guest = "5f0c8f5e-3c39-4f7e-9d59-3d1f8f1e2a10"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", guest, 5*time.Second)
}

func TestGetCart_SendsGuestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart", r.URL.Path)
		assert.Equal(t, guest, r.Header.Get("X-Guest-ID"))
		assert.Empty(t, r.Header.Get("If-Match"))
		_ = json.NewEncoder(w).Encode(domain.CartView{GuestID: guest, Version: 3})
	})

	view, err := c.GetCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.Version)
}

func TestAddItem_SendsIfMatchAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, `"7"`, r.Header.Get("If-Match"))

		var body struct {
			ProductID int64 `json:"productId"`
			Quantity  int   `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(12), body.ProductID)
		assert.Equal(t, 2, body.Quantity)

		_ = json.NewEncoder(w).Encode(domain.CartView{Version: 8})
	})

	view, err := c.AddItem(context.Background(), 12, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), view.Version)
}

func TestCartWrite_ConflictIsStaleCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"cart was modified","code":"stale_cart"}`))
	})

	_, err := c.UpdateQuantity(context.Background(), 1, 3, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStaleCart)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestConflictWithoutBody_DefaultsToStaleCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := c.RemoveItem(context.Background(), 1, NoVersion)
	assert.ErrorIs(t, err, domain.ErrStaleCart)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation failed","code":"validation_failed","details":{"email":"is invalid"}}`))
	})

	_, err := c.CalculateShipping(context.Background(), []int64{1}, 100)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is invalid", verr.Fields["email"])
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.PaymentKey(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCreatePaymentOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payments/create", r.URL.Path)
		var req payment.CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(domain.PaymentOrder{
			OrderID:         req.OrderID,
			RazorpayOrderID: "order_abc",
			Amount:          req.Amount,
			Currency:        req.Currency,
			Receipt:         req.Receipt,
		})
	})

	po, err := c.CreatePaymentOrder(context.Background(), payment.CreateRequest{
		OrderID: "o-1", Amount: 245000, Currency: "INR", Receipt: "r-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", po.RazorpayOrderID)
	assert.Equal(t, domain.Money(245000), po.Amount)
}

func TestContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetCart(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
