package models

import "github.com/stripe/stripe-go/v79"

// 運費規則：滿額免運，未滿收固定運費
const (
	FreeDeliveryThreshold = 200.0
	DeliveryFeeAmount     = 25.0
)

// DefaultCurrency is the single currency the marketplace trades in.
const DefaultCurrency = stripe.CurrencyINR

// CheckoutSummary is derived from the active cart at checkout time. It is
// never stored.
type CheckoutSummary struct {
	Subtotal    float64         `json:"subtotal"`
	DeliveryFee float64         `json:"delivery_fee"`
	GrandTotal  float64         `json:"grand_total"`
	Currency    stripe.Currency `json:"currency"`
}

// NewCheckoutSummary computes subtotal, delivery fee and grand total for the
// given active cart lines.
func NewCheckoutSummary(lines []CartLine) CheckoutSummary {
	subtotal := TotalPrice(lines)

	fee := DeliveryFeeAmount
	if subtotal >= FreeDeliveryThreshold {
		fee = 0
	}

	return CheckoutSummary{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		GrandTotal:  subtotal + fee,
		Currency:    DefaultCurrency,
	}
}

// AmountToFreeDelivery returns how much more the buyer must add to reach free
// delivery, or 0 when already above the threshold.
func (s CheckoutSummary) AmountToFreeDelivery() float64 {
	if s.Subtotal >= FreeDeliveryThreshold {
		return 0
	}
	return FreeDeliveryThreshold - s.Subtotal
}
