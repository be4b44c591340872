package client

import (
	"fmt"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("storefront api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("storefront api: status %d (%s): %s", e.Status, e.Code, e.Message)
}

var sentinels = map[string]error{
	"stale_cart":        domain.ErrStaleCart,
	"invalid_quantity":  domain.ErrInvalidQuantity,
	"quantity_limit":    domain.ErrQuantityLimit,
	"item_not_found":    domain.ErrItemNotFound,
	"product_not_found": domain.ErrProductNotFound,
	"order_not_found":   domain.ErrOrderNotFound,
	"empty_cart":        domain.ErrEmptyCart,
}

// Unwrap lets callers match API errors against the domain sentinels with
// errors.Is.
func (e *APIError) Unwrap() error {
	if e.Code == "validation_failed" {
		return &domain.ValidationError{Fields: e.Fields}
	}
	return sentinels[e.Code]
}
