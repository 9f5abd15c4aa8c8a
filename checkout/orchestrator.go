package checkout

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gofreshmart.io/market/cart"
	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
)

// Identity is the acting buyer resolved from the authentication collaborator.
type Identity struct {
	UserID string
}

// IdentityResolver resolves the current session's identity. A nil identity
// with a nil error means no one is signed in.
type IdentityResolver interface {
	CurrentUser(ctx context.Context) (*Identity, error)
}

// OrderWriter is the slice of the order persistence collaborator the
// orchestrator drives: header write, line write, compensating delete.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	AddOrderItems(ctx context.Context, items []*models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// Notifier is told about successfully placed orders. Optional.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Result reports a successful checkout.
type Result struct {
	OrderID string
	Summary models.CheckoutSummary
}

// Orchestrator converts the session's active cart into a durable order, or
// fails cleanly leaving the cart untouched. One instance per session, next to
// its engine.
type Orchestrator struct {
	engine   *cart.Engine
	orders   OrderWriter
	identity IdentityResolver
	notifier Notifier
	logger   *zap.Logger

	inFlight atomic.Bool
}

// NewOrchestrator wires an orchestrator to its session engine and the remote
// collaborators. notifier may be nil.
func NewOrchestrator(engine *cart.Engine, orders OrderWriter, identity IdentityResolver, notifier Notifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		orders:   orders,
		identity: identity,
		notifier: notifier,
		logger:   logger,
	}
}

// Summarize computes the checkout summary for the current active cart.
func (o *Orchestrator) Summarize() models.CheckoutSummary {
	return models.NewCheckoutSummary(o.engine.Lines())
}

// PlaceOrder runs the checkout flow:
//
//  1. resolve the acting identity; none means no writes at all,
//  2. reject an empty cart before any remote call,
//  3. write the order header in pending status,
//  4. write one order line per cart line,
//  5. on line failure, issue a best-effort compensating delete of the header,
//  6. on full success, clear the active cart.
//
// The cart is left unmodified on every failure path. At most one checkout per
// session may be in flight.
func (o *Orchestrator) PlaceOrder(ctx context.Context, deliveryAddress string) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInFlight
	}
	defer o.inFlight.Store(false)

	buyer, err := o.identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if buyer == nil {
		return nil, ErrAuthenticationRequired
	}

	lines := o.engine.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	summary := models.NewCheckoutSummary(lines)
	now := time.Now()

	order := &models.Order{
		ID:              uuid.NewString(),
		BuyerID:         buyer.UserID,
		DeliveryAddress: deliveryAddress,
		Status:          enum.OrderStatusPending,
		Currency:        summary.Currency,
		TotalAmount:     summary.GrandTotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("invalid order: %w", err)
	}

	if err := o.orders.CreateOrder(ctx, order); err != nil {
		o.logger.Error("Failed to create order header",
			zap.String("buyer_id", buyer.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOrderCreate, err)
	}

	items := make([]*models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = &models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	if err := o.orders.AddOrderItems(ctx, items); err != nil {
		o.logger.Error("Failed to write order items, rolling back header",
			zap.String("order_id", order.ID), zap.Error(err))

		// 補償刪除：失敗也只能記錄，留給孤兒清理作業
		if delErr := o.orders.DeleteOrder(ctx, order.ID); delErr != nil {
			o.logger.Error("Compensating delete failed, order header orphaned",
				zap.String("order_id", order.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %w", ErrOrderItems, err)
	}

	o.engine.ClearCart()

	if o.notifier != nil {
		order.Items = derefItems(items)
		o.notifier.OrderCreated(ctx, order)
	}

	o.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", buyer.UserID),
		zap.Float64("grand_total", summary.GrandTotal))

	return &Result{OrderID: order.ID, Summary: summary}, nil
}

func derefItems(items []*models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out
}
