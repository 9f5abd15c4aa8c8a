package models

import (
	"encoding/json"
	"time"

	"gofreshmart.io/market/models/enum"
)

// Event is one marketplace event on the wire and in the processed-event log.
type Event struct {
	ID        string          `json:"id"`
	Type      enum.EventType  `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Processed bool            `json:"processed"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderEventPayload is carried by order.created and order.status_changed events.
type OrderEventPayload struct {
	OrderID   string           `json:"order_id"`
	BuyerID   string           `json:"buyer_id"`
	CourierID string           `json:"courier_id,omitempty"`
	Status    enum.OrderStatus `json:"status"`
	Total     float64          `json:"total"`
}

// CartEventPayload is carried by cart.changed events.
type CartEventPayload struct {
	UserID     string `json:"user_id"`
	TotalItems uint64 `json:"total_items"`
}
