package domain

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrQuantityLimit   = errors.New("quantity exceeds the per-line limit")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrStaleCart       = errors.New("cart was modified by another request")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)
