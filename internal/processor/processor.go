// internal/processor/processor.go
package processor

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// DefaultAllowList holds the card numbers accepted out of the box. It stands
// in for a real card-network validation service.
var DefaultAllowList = []string{
	"4111111111111111",
	"4242424242424242",
}

// AllowListValidator implements domain.CardValidator against a fixed set of
// accepted card numbers.
type AllowListValidator struct {
	allowed map[string]struct{}
}

// NewAllowListValidator creates a validator accepting exactly the given
// numbers.
func NewAllowListValidator(numbers []string) *AllowListValidator {
	allowed := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		allowed[n] = struct{}{}
	}
	return &AllowListValidator{allowed: allowed}
}

// Valid reports whether the number is on the allow-list.
func (v *AllowListValidator) Valid(number string) bool {
	_, ok := v.allowed[number]
	return ok
}

// NoopCharger implements domain.CardCharger as an always-succeeding stand-in
// for the external card network. It only logs the charge.
type NoopCharger struct {
	logger *slog.Logger
}

// NewNoopCharger creates a new NoopCharger.
func NewNoopCharger(logger *slog.Logger) *NoopCharger {
	return &NoopCharger{logger: logger}
}

// Charge pretends to charge the card through the processor. There is no
// declined-charge error path.
func (c *NoopCharger) Charge(ctx context.Context, number string, amount decimal.Decimal) error {
	c.logger.InfoContext(ctx, "Charging credit card", "amount", amount.StringFixed(2))
	return nil
}
