package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle                  CheckoutStatus = "IDLE"
	CheckoutStatusPaymentMethodSelected CheckoutStatus = "PAYMENT_METHOD_SELECTED"
	CheckoutStatusValidating            CheckoutStatus = "VALIDATING"
	CheckoutStatusProcessing            CheckoutStatus = "PROCESSING"
	CheckoutStatusSuccess               CheckoutStatus = "SUCCESS"
	CheckoutStatusDone                  CheckoutStatus = "DONE"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle: {
		CheckoutStatusIdle,
		CheckoutStatusPaymentMethodSelected,
	},
	CheckoutStatusPaymentMethodSelected: {
		CheckoutStatusPaymentMethodSelected,
		CheckoutStatusValidating,
		CheckoutStatusIdle,
	},
	CheckoutStatusValidating: {
		CheckoutStatusProcessing,
		CheckoutStatusPaymentMethodSelected,
		CheckoutStatusIdle,
	},
	CheckoutStatusProcessing: {CheckoutStatusSuccess},
	CheckoutStatusSuccess:    {CheckoutStatusDone},
	CheckoutStatusDone:       {CheckoutStatusIdle},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, s := range checkoutTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether close/cancel may return the checkout to idle.
func (s CheckoutStatus) IsCancellable() bool {
	return CanTransitionTo(s, CheckoutStatusIdle) && s != CheckoutStatusDone
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
