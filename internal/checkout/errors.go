package checkout

import (
	"errors"
	"fmt"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/paymentflow"
)

var (
	ErrCartChanged         = errors.New("cart changed since shipping was calculated")
	ErrSelectionIncomplete = errors.New("shipping and payment options must be selected first")
	ErrPaymentInProgress   = errors.New("a payment is already in progress")
	ErrNotVerified         = errors.New("payment is not verified")
	ErrAwaitingReview      = errors.New("payment could not be confirmed and is awaiting review")
	ErrPaymentDismissed    = paymentflow.ErrPaymentDismissed
)

type (
	ValidationError    = domain.ValidationError
	PaymentFailedError = paymentflow.PaymentFailedError
	VerificationError  = paymentflow.VerificationError
)

// TransitionError is returned when an operation is not allowed in the current
// state.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("checkout cannot move from %s to %s", e.From, e.To)
}
