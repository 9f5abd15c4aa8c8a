package enum

// OrderStatus 表示訂單的狀態
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"          // 訂單已建立，等待賣家接單
	OrderStatusAccepted       OrderStatus = "accepted"         // 賣家已接單並備貨
	OrderStatusAssigned       OrderStatus = "assigned"         // 已指派外送員
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // 外送中
	OrderStatusDelivered      OrderStatus = "delivered"        // 已送達
	OrderStatusCancelled      OrderStatus = "cancelled"        // 訂單取消
)

// transitions lists the forward edges of the order lifecycle. Cancelled and
// delivered are absorbing.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:       {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:       {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

// AllowTransition reports whether an order may move from s to next.
func (s OrderStatus) AllowTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether an order in status s may still be cancelled.
func (s OrderStatus) CanCancel() bool {
	return s.AllowTransition(OrderStatusCancelled)
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusAssigned,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
