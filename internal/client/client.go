// Package client is the typed HTTP client of the storefront API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
)

// NoVersion sends a cart write without If-Match.
const NoVersion int64 = -1

type Client struct {
	baseURL string
	guestID string
	http    *http.Client
}

func New(baseURL, guestID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		guestID: guestID,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) GuestID() string {
	return c.guestID
}

func (c *Client) GetCart(ctx context.Context) (domain.CartView, error) {
	var view domain.CartView
	err := c.do(ctx, http.MethodGet, "/cart", nil, NoVersion, &view)
	return view, err
}

func (c *Client) AddItem(ctx context.Context, productID int64, quantity int, expected int64) (domain.CartView, error) {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	var view domain.CartView
	err := c.do(ctx, http.MethodPost, "/cart/items", body, expected, &view)
	return view, err
}

func (c *Client) UpdateQuantity(ctx context.Context, productID int64, quantity int, expected int64) (domain.CartView, error) {
	body := map[string]int{"quantity": quantity}
	var view domain.CartView
	err := c.do(ctx, http.MethodPut, "/cart/items/"+strconv.FormatInt(productID, 10), body, expected, &view)
	return view, err
}

func (c *Client) RemoveItem(ctx context.Context, productID int64, expected int64) (domain.CartView, error) {
	var view domain.CartView
	err := c.do(ctx, http.MethodDelete, "/cart/items/"+strconv.FormatInt(productID, 10), nil, expected, &view)
	return view, err
}

func (c *Client) ClearCart(ctx context.Context, expected int64) (domain.CartView, error) {
	var view domain.CartView
	err := c.do(ctx, http.MethodDelete, "/cart", nil, expected, &view)
	return view, err
}

func (c *Client) CalculateShipping(ctx context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error) {
	body := map[string]interface{}{"productIds": productIDs, "orderTotal": orderTotal}
	var cfg domain.ShippingConfig
	err := c.do(ctx, http.MethodPost, "/shipping/calculate", body, NoVersion, &cfg)
	return cfg, err
}

func (c *Client) InitiateOrder(ctx context.Context, req orders.InitiateRequest) (domain.InitiatedOrder, error) {
	var initiated domain.InitiatedOrder
	err := c.do(ctx, http.MethodPost, "/orders/initiate", req, NoVersion, &initiated)
	return initiated, err
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, NoVersion, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreatePaymentOrder(ctx context.Context, req payment.CreateRequest) (*domain.PaymentOrder, error) {
	var po domain.PaymentOrder
	if err := c.do(ctx, http.MethodPost, "/payments/create", req, NoVersion, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (c *Client) VerifyPayment(ctx context.Context, v domain.PaymentVerification) (domain.VerificationResult, error) {
	var result domain.VerificationResult
	err := c.do(ctx, http.MethodPost, "/payments/verify", v, NoVersion, &result)
	return result, err
}

func (c *Client) PaymentKey(ctx context.Context) (string, error) {
	var resp struct {
		KeyID string `json:"keyId"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/key", nil, NoVersion, &resp); err != nil {
		return "", err
	}
	return resp.KeyID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, expected int64, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Guest-ID", c.guestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if expected >= 0 {
		req.Header.Set("If-Match", strconv.Quote(strconv.FormatInt(expected, 10)))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error   string            `json:"error"`
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	} else {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.Fields = body.Details
	}
	if resp.StatusCode == http.StatusConflict && apiErr.Code == "" {
		apiErr.Code = "stale_cart"
	}
	return apiErr
}
