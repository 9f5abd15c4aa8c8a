package enum

// Role 表示使用者在市集中的角色
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSeller   Role = "seller"
	RoleDelivery Role = "delivery"
)

// Action is a capability-gated operation. Screens ask HasCapability instead of
// duplicating per-role conditionals.
type Action string

const (
	ActionPlaceOrder    Action = "place_order"
	ActionManageCatalog Action = "manage_catalog"
	ActionFulfillOrder  Action = "fulfill_order"
	ActionDeliverOrder  Action = "deliver_order"
)

var capabilities = map[Role][]Action{
	RoleBuyer:    {ActionPlaceOrder},
	RoleSeller:   {ActionManageCatalog, ActionFulfillOrder},
	RoleDelivery: {ActionDeliverOrder},
}

// HasCapability reports whether the role is allowed to perform the action.
func HasCapability(role Role, action Action) bool {
	for _, a := range capabilities[role] {
		if a == action {
			return true
		}
	}
	return false
}
