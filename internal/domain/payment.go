// internal/domain/payment.go
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Payment is an immutable record of a single transfer between two users.
// It is returned to the caller of Pay and is not retained by either party;
// only the textual feed entries survive.
type Payment struct {
	ID     uuid.UUID       // Generated at construction
	Amount decimal.Decimal // Amount transferred
	Actor  *User           // Paying user
	Target *User           // Receiving user
	Note   string          // Free-text note
}

// NewPayment creates a new Payment instance. The amount is not validated
// here; validation happens earlier in the calling path.
func NewPayment(amount decimal.Decimal, actor, target *User, note string) *Payment {
	return &Payment{
		ID:     uuid.New(),
		Amount: amount,
		Actor:  actor,
		Target: target,
		Note:   note,
	}
}
