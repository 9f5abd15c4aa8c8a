package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusAccepted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusAccepted, OrderStatusAssigned, true},
		{OrderStatusAccepted, OrderStatusCancelled, true},
		{OrderStatusAssigned, OrderStatusOutForDelivery, true},
		{OrderStatusAssigned, OrderStatusCancelled, false},
		{OrderStatusOutForDelivery, OrderStatusDelivered, true},
		{OrderStatusOutForDelivery, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusAccepted, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.AllowTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusCanCancel(t *testing.T) {
	assert.True(t, OrderStatusPending.CanCancel())
	assert.True(t, OrderStatusAccepted.CanCancel())
	assert.False(t, OrderStatusAssigned.CanCancel())
	assert.False(t, OrderStatusOutForDelivery.CanCancel())
	assert.False(t, OrderStatusDelivered.CanCancel())
	assert.False(t, OrderStatusCancelled.CanCancel())
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.False(t, OrderStatus("paid").Valid())
}

func TestHasCapability(t *testing.T) {
	assert.True(t, HasCapability(RoleBuyer, ActionPlaceOrder))
	assert.False(t, HasCapability(RoleBuyer, ActionManageCatalog))
	assert.True(t, HasCapability(RoleSeller, ActionManageCatalog))
	assert.True(t, HasCapability(RoleSeller, ActionFulfillOrder))
	assert.False(t, HasCapability(RoleSeller, ActionDeliverOrder))
	assert.True(t, HasCapability(RoleDelivery, ActionDeliverOrder))
	assert.False(t, HasCapability(RoleDelivery, ActionPlaceOrder))
	assert.False(t, HasCapability(Role("unknown"), ActionPlaceOrder))
}
