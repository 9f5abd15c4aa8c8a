package models

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"gofreshmart.io/market/models/enum"
)

// Order 代表訂單
type Order struct {
	ID              string           `json:"id"`
	BuyerID         string           `json:"buyer_id"`
	CourierID       *string          `json:"courier_id,omitempty"`
	DeliveryAddress string           `json:"delivery_address"`
	Status          enum.OrderStatus `json:"status"`
	Currency        stripe.Currency  `json:"currency"`
	TotalAmount     float64          `json:"total_amount"`
	Items           []OrderItem      `json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// OrderItem 代表訂單中的單個商品項目
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  uint64  `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Validate checks the order header before it is written.
func (o *Order) Validate() error {
	if o.BuyerID == "" {
		return fmt.Errorf("order is missing a buyer")
	}
	if o.TotalAmount < 0 {
		return fmt.Errorf("order total must not be negative")
	}
	if !o.Status.Valid() {
		return fmt.Errorf("unknown order status %q", o.Status)
	}
	return nil
}

// AllowChangeStatus reports whether the order may move to the new status.
func (o *Order) AllowChangeStatus(next enum.OrderStatus) bool {
	return o.Status.AllowTransition(next)
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	return o.Status.CanCancel()
}
