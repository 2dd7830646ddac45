// internal/processor/processor_test.go
package processor

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAllowListValidator(t *testing.T) {
	v := NewAllowListValidator(DefaultAllowList)

	assert.True(t, v.Valid("4111111111111111"))
	assert.True(t, v.Valid("4242424242424242"))
	assert.False(t, v.Valid("4111111111111119"))
	assert.False(t, v.Valid(""))

	custom := NewAllowListValidator([]string{"5500000000000004"})
	assert.True(t, custom.Valid("5500000000000004"))
	assert.False(t, custom.Valid("4111111111111111"))
}

func TestNoopChargerAlwaysSucceeds(t *testing.T) {
	c := NewNoopCharger(slog.Default())

	err := c.Charge(context.Background(), "4111111111111111", decimal.NewFromFloat(15.00))
	assert.NoError(t, err)
}
