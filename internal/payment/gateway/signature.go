package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/razorpay/razorpay-go/utils"
)

// Sign computes the checkout signature the gateway attaches to a successful
// payment: hex HMAC-SHA256 of "<gateway order id>|<payment id>".
func Sign(gatewayOrderID, paymentID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature reports whether signature is the gateway's signature for
// the order and payment.
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   gatewayOrderID,
		"razorpay_payment_id": paymentID,
	}, signature, secret)
}
