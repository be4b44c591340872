package payment

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid payment request")
	ErrAmountMismatch       = errors.New("amount does not match the order total")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrReceiptConflict      = errors.New("receipt already used for a different payment")
	ErrPaymentOrderNotFound = errors.New("payment order not found")
	ErrDuplicateReceipt     = errors.New("payment order for this receipt already exists")
)
