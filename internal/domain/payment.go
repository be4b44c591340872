package domain

// PaymentOrder is the gateway-side order created once per checkout attempt.
// Receipt is the idempotency key of the attempt.
type PaymentOrder struct {
	OrderID         string `json:"orderId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	Amount          Money  `json:"amount"`
	Currency        string `json:"currency"`
	Receipt         string `json:"receipt"`
}

// PaymentVerification is the signed callback forwarded from the payment widget.
type PaymentVerification struct {
	PaymentID       string `json:"razorpayPaymentId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	Signature       string `json:"razorpaySignature"`
}

type VerificationResult struct {
	Verified bool   `json:"verified"`
	Order    *Order `json:"order,omitempty"`
}
