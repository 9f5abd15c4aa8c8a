package enum

// EventType 表示市集事件的類型
type EventType string

const (
	EventTypeCartChanged        EventType = "cart.changed"
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)
