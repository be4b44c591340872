package domain

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

// PaymentMethod is the method preselected in the gateway widget. Every method
// is collected through the gateway; there is no offline payment path.
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetbanking PaymentMethod = "netbanking"
	PaymentWallet     PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentNetbanking, PaymentWallet:
		return true
	default:
		return false
	}
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Landmark string `json:"landmark,omitempty"`
}

// CheckoutDraft holds the not-yet-committed selections of one checkout attempt.
type CheckoutDraft struct {
	Customer       Customer       `json:"customer"`
	Address        Address        `json:"address"`
	ShippingMethod ShippingMethod `json:"shippingMethod,omitempty"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod,omitempty"`
}
