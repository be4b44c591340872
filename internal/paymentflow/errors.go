package paymentflow

import (
	"errors"
	"fmt"
)

// ErrPaymentDismissed means the shopper closed the widget without paying.
var ErrPaymentDismissed = errors.New("payment window closed before completion")

// PaymentFailedError is a failure reported by the gateway inside the widget.
type PaymentFailedError struct {
	Code   string
	Reason string
}

func (e *PaymentFailedError) Error() string {
	if e.Code == "" {
		return "payment failed: " + e.Reason
	}
	return fmt.Sprintf("payment failed (%s): %s", e.Code, e.Reason)
}

// VerificationError means the gateway took the payment but the server did not
// confirm it. The payment is journaled for manual review.
type VerificationError struct {
	PaymentID       string
	RazorpayOrderID string
	// Unverified is set when the server answered and rejected the signature.
	Unverified bool
	Err        error
}

func (e *VerificationError) Error() string {
	if e.Unverified {
		return fmt.Sprintf("payment %s could not be verified", e.PaymentID)
	}
	return fmt.Sprintf("payment %s verification did not complete: %v", e.PaymentID, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
