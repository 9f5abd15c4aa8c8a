package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutSummaryBelowThreshold(t *testing.T) {
	lines := []CartLine{
		{ProductID: "v1", UnitPrice: 40, Quantity: 3},
		{ProductID: "v2", UnitPrice: 30, Quantity: 1},
	}

	s := NewCheckoutSummary(lines)

	assert.Equal(t, 150.0, s.Subtotal)
	assert.Equal(t, DeliveryFeeAmount, s.DeliveryFee)
	assert.Equal(t, 175.0, s.GrandTotal)
	assert.Equal(t, DefaultCurrency, s.Currency)
	assert.Equal(t, 50.0, s.AmountToFreeDelivery())
}

func TestCheckoutSummaryAtThreshold(t *testing.T) {
	lines := []CartLine{{ProductID: "v1", UnitPrice: 40, Quantity: 5}}

	s := NewCheckoutSummary(lines)

	assert.Equal(t, 200.0, s.Subtotal)
	assert.Equal(t, 0.0, s.DeliveryFee)
	assert.Equal(t, 200.0, s.GrandTotal)
	assert.Equal(t, 0.0, s.AmountToFreeDelivery())
}

func TestCheckoutSummaryEmptyCart(t *testing.T) {
	s := NewCheckoutSummary(nil)

	assert.Equal(t, 0.0, s.Subtotal)
	assert.Equal(t, DeliveryFeeAmount, s.DeliveryFee)
}
