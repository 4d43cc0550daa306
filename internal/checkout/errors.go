package checkout

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress  = errors.New("payment is being processed")
	ErrNoPaymentMethod     = errors.New("payment method is not selected")
	ErrInvalidMethod       = errors.New("unknown payment method")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)

// ValidationError lists the card form fields that block submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid payment details: " + strings.Join(e.Fields, ", ")
}
