// internal/domain/errors.go
package domain

// UsernameError reports a username that fails format validation at
// construction time. No User exists after this error.
type UsernameError struct {
	Reason string
}

func (e *UsernameError) Error() string { return e.Reason }

// CreditCardError reports a rejected card association. The user's card
// state is unchanged after this error.
type CreditCardError struct {
	Reason string
}

func (e *CreditCardError) Error() string { return e.Reason }

// PaymentError reports a card-path payment rejected before any balance or
// feed mutation took place.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string { return e.Reason }

// Sentinel instances for the fixed validation failures. Callers may match
// with errors.Is against these, or with errors.As against the kind types
// above.
var (
	ErrUsernameInvalid = &UsernameError{Reason: "username not valid"}

	ErrCardAlreadySet = &CreditCardError{Reason: "only one credit card per user"}
	ErrCardInvalid    = &CreditCardError{Reason: "invalid credit card number"}

	ErrSelfPayment       = &PaymentError{Reason: "user cannot pay themselves"}
	ErrNonPositiveAmount = &PaymentError{Reason: "amount must be a non-negative number"}
	ErrNoCreditCard      = &PaymentError{Reason: "must have a credit card to make a payment"}
)
