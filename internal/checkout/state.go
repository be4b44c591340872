package checkout

type State string

const (
	StateCartReview         State = "cart_review"
	StateAddressEntry       State = "address_entry"
	StateShippingAndPayment State = "shipping_and_payment"
	StatePaymentInFlight    State = "payment_in_flight"
	StateComplete           State = "complete"
	StateFailed             State = "failed"
)

var transitions = map[State][]State{
	StateCartReview:         {StateAddressEntry},
	StateAddressEntry:       {StateCartReview, StateShippingAndPayment},
	StateShippingAndPayment: {StateAddressEntry, StatePaymentInFlight},
	StatePaymentInFlight:    {StateComplete, StateFailed, StateShippingAndPayment},
	StateFailed:             {StateShippingAndPayment},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateComplete
}
