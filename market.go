package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gofreshmart.io/market/cart"
	"gofreshmart.io/market/cartstore"
	"gofreshmart.io/market/catalog"
	"gofreshmart.io/market/checkout"
	"gofreshmart.io/market/driver"
	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
	"gofreshmart.io/market/notification"
	"gofreshmart.io/market/order"
	"gofreshmart.io/market/profile"
)

// ErrNotPermitted is returned when the acting user's role lacks the
// capability for the requested operation.
var ErrNotPermitted = errors.New("operation not permitted for role")

type Service interface {
	NewCartSession(ctx context.Context, identity checkout.IdentityResolver, userID string) (*CartSession, error)

	CreateProduct(ctx context.Context, sellerID string, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, sellerID string, product *models.Product) error
	DeleteProduct(ctx context.Context, sellerID, id string) error
	ListProducts(ctx context.Context, limit, offset uint64) ([]*models.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]*models.Product, error)
	SearchProducts(ctx context.Context, query string, limit uint64) ([]*models.Product, error)

	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string, limit, offset uint64) ([]*models.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID string, limit, offset uint64) ([]*models.Order, error)
	AcceptOrder(ctx context.Context, sellerID, orderID string) error
	AssignCourier(ctx context.Context, courierID, orderID string) error
	UpdateOrderStatus(ctx context.Context, orderID string, status enum.OrderStatus) error
	CancelOrder(ctx context.Context, orderID string) error
	ListUnassignedOrders(ctx context.Context) ([]*models.Order, error)
	ListActiveDeliveries(ctx context.Context, courierID string) ([]*models.Order, error)

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, p *models.Profile) error

	ListNotifications(ctx context.Context, userID string, limit uint64) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	CountUnreadNotifications(ctx context.Context, userID string) (uint64, error)

	SweepOrphanedOrders(ctx context.Context, olderThan time.Duration) (int, error)
	StartOrphanSweep(ctx context.Context, interval, olderThan time.Duration)

	Shutdown()
}

var _ Service = (*service)(nil)

type service struct {
	catalog      catalog.Repository
	order        order.Repository
	profile      profile.Repository
	notification notification.Repository

	transactionManager *driver.TransactionManager
	eventManager       *EventManager
	workerPool         *WorkerPool

	cartBlob cartstore.Blob
	natsConn *nats.Conn
	logger   *zap.Logger
}

func NewService(
	catalog catalog.Repository, order order.Repository, profile profile.Repository, notification notification.Repository,
	tm *driver.TransactionManager, cartBlob cartstore.Blob,
	natsConn *nats.Conn, workerCount int,
	logger *zap.Logger) Service {
	if workerCount < 1 {
		workerCount = 10
	}
	s := &service{
		catalog:            catalog,
		order:              order,
		profile:            profile,
		notification:       notification,
		transactionManager: tm,
		cartBlob:           cartBlob,
		natsConn:           natsConn,
		logger:             logger,
	}
	s.eventManager = NewEventManager(natsConn, logger)
	s.workerPool = NewWorkerPool(workerCount, s, logger)
	s.registerEventHandlers()

	// 訂閱事件
	if err := s.eventManager.SubscribeToEvents(s.workerPool); err != nil {
		logger.Error("Failed to subscribe to events", zap.Error(err))
	}

	return s
}

func (s *service) Shutdown() {
	s.workerPool.Shutdown()
}

// authorize checks the acting user's role against the capability the
// operation requires.
func (s *service) authorize(ctx context.Context, userID string, action enum.Action) error {
	role, err := s.profile.GetRole(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("resolve role: %w", err)
	}
	if !enum.HasCapability(role, action) {
		return fmt.Errorf("%w: %s cannot %s", ErrNotPermitted, role, action)
	}
	return nil
}

// ---- cart sessions ----

// CartSession bundles the per-session cart machinery: the in-memory engine,
// the persisted mirror behind it, and the checkout orchestrator. Close flushes
// the mirror; call it when the session ends.
type CartSession struct {
	Engine   *cart.Engine
	Checkout *checkout.Orchestrator

	store *cartstore.Store
}

func (cs *CartSession) Close() {
	cs.store.Close()
}

// NewCartSession rehydrates the user's cart from the blob store, wires the
// persisted mirror and event fan-out to the engine, and attaches a checkout
// orchestrator bound to the given identity resolver.
func (s *service) NewCartSession(ctx context.Context, identity checkout.IdentityResolver, userID string) (*CartSession, error) {
	store := cartstore.NewStore(s.cartBlob, s.logger)
	active, saved := store.Load(ctx, userID)

	engine := cart.NewEngine(userID, active, saved, s.logger)
	store.Attach(engine)

	engine.Subscribe(func(activeLines, _ []models.CartLine) {
		payload := models.CartEventPayload{
			UserID:     userID,
			TotalItems: models.TotalItems(activeLines),
		}
		if err := s.eventManager.Publish(enum.EventTypeCartChanged, payload); err != nil {
			s.logger.Warn("Failed to publish cart event", zap.String("user_id", userID), zap.Error(err))
		}
	})

	orch := checkout.NewOrchestrator(engine, &orderWriter{s: s}, identity, &orderNotifier{s: s}, s.logger)

	return &CartSession{
		Engine:   engine,
		Checkout: orch,
		store:    store,
	}, nil
}

// orderWriter adapts the order repository to the checkout orchestrator,
// running each write in its own transaction. Header and items are separate
// transactions on purpose: the orchestrator owns the compensation flow.
type orderWriter struct {
	s *service
}

func (w *orderWriter) CreateOrder(ctx context.Context, o *models.Order) error {
	return w.s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return w.s.order.CreateOrder(ctx, tx, o)
	})
}

func (w *orderWriter) AddOrderItems(ctx context.Context, items []*models.OrderItem) error {
	return w.s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return w.s.order.AddOrderItems(ctx, tx, items)
	})
}

func (w *orderWriter) DeleteOrder(ctx context.Context, orderID string) error {
	return w.s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return w.s.order.DeleteOrder(ctx, tx, orderID)
	})
}

// orderNotifier publishes order.created when a checkout lands.
type orderNotifier struct {
	s *service
}

func (n *orderNotifier) OrderCreated(_ context.Context, o *models.Order) {
	payload := models.OrderEventPayload{
		OrderID: o.ID,
		BuyerID: o.BuyerID,
		Status:  o.Status,
		Total:   o.TotalAmount,
	}
	if err := n.s.eventManager.Publish(enum.EventTypeOrderCreated, payload); err != nil {
		n.s.logger.Warn("Failed to publish order event", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// ---- catalog ----

func (s *service) CreateProduct(ctx context.Context, sellerID string, product *models.Product) error {
	if err := s.authorize(ctx, sellerID, enum.ActionManageCatalog); err != nil {
		return err
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Create(ctx, tx, product)
	})
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.catalog.GetByID(ctx, nil, id)
}

func (s *service) UpdateProduct(ctx context.Context, sellerID string, product *models.Product) error {
	if err := s.authorize(ctx, sellerID, enum.ActionManageCatalog); err != nil {
		return err
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Update(ctx, tx, product)
	})
}

func (s *service) DeleteProduct(ctx context.Context, sellerID, id string) error {
	if err := s.authorize(ctx, sellerID, enum.ActionManageCatalog); err != nil {
		return err
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.catalog.Delete(ctx, tx, id)
	})
}

func (s *service) ListProducts(ctx context.Context, limit, offset uint64) ([]*models.Product, error) {
	return s.catalog.List(ctx, nil, limit, offset)
}

func (s *service) ListProductsByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	return s.catalog.ListByCategory(ctx, nil, category)
}

func (s *service) SearchProducts(ctx context.Context, query string, limit uint64) ([]*models.Product, error) {
	return s.catalog.SearchByName(ctx, nil, query, limit)
}

// ---- orders ----

func (s *service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.order.GetOrder(ctx, nil, orderID)
}

func (s *service) ListOrdersByBuyer(ctx context.Context, buyerID string, limit, offset uint64) ([]*models.Order, error) {
	return s.order.ListOrdersByBuyer(ctx, nil, buyerID, limit, offset)
}

func (s *service) ListOrdersBySeller(ctx context.Context, sellerID string, limit, offset uint64) ([]*models.Order, error) {
	if err := s.authorize(ctx, sellerID, enum.ActionFulfillOrder); err != nil {
		return nil, err
	}
	return s.order.ListOrdersBySeller(ctx, nil, sellerID, limit, offset)
}

// AcceptOrder moves a pending order to accepted on behalf of the seller.
func (s *service) AcceptOrder(ctx context.Context, sellerID, orderID string) error {
	if err := s.authorize(ctx, sellerID, enum.ActionFulfillOrder); err != nil {
		return err
	}
	return s.changeOrderStatus(ctx, orderID, enum.OrderStatusAccepted)
}

// AssignCourier claims an accepted order for the courier and marks it
// assigned, both inside one transaction so the order cannot be claimed twice.
func (s *service) AssignCourier(ctx context.Context, courierID, orderID string) error {
	if err := s.authorize(ctx, courierID, enum.ActionDeliverOrder); err != nil {
		return err
	}

	var updated *models.Order
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		orderModel, err := s.order.GetOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		if !orderModel.AllowChangeStatus(enum.OrderStatusAssigned) {
			return fmt.Errorf("invalid status transition from %s to %s", orderModel.Status, enum.OrderStatusAssigned)
		}
		if orderModel.CourierID != nil {
			return fmt.Errorf("order %s already has a courier", orderID)
		}

		if err = s.order.AssignCourier(ctx, tx, orderID, courierID); err != nil {
			return fmt.Errorf("failed to assign courier: %w", err)
		}
		if err = s.order.UpdateOrderStatus(ctx, tx, orderID, enum.OrderStatusAssigned); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		orderModel.CourierID = &courierID
		orderModel.Status = enum.OrderStatusAssigned
		updated = orderModel
		return nil
	})
	if err != nil {
		return err
	}

	s.publishStatusChanged(updated)
	return nil
}

// UpdateOrderStatus moves an order along its lifecycle, rejecting transitions
// the lifecycle does not allow.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID string, newStatus enum.OrderStatus) error {
	return s.changeOrderStatus(ctx, orderID, newStatus)
}

// CancelOrder cancels an order if its current status still allows it.
func (s *service) CancelOrder(ctx context.Context, orderID string) error {
	var updated *models.Order
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		orderModel, err := s.order.GetOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		if !orderModel.CanCancel() {
			return fmt.Errorf("order cannot be cancelled: current status is %s", orderModel.Status)
		}

		if err = s.order.UpdateOrderStatus(ctx, tx, orderID, enum.OrderStatusCancelled); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		orderModel.Status = enum.OrderStatusCancelled
		updated = orderModel
		return nil
	})
	if err != nil {
		return err
	}

	s.publishStatusChanged(updated)
	return nil
}

func (s *service) ListUnassignedOrders(ctx context.Context) ([]*models.Order, error) {
	return s.order.ListUnassigned(ctx, nil)
}

func (s *service) ListActiveDeliveries(ctx context.Context, courierID string) ([]*models.Order, error) {
	return s.order.ListActiveByCourier(ctx, nil, courierID)
}

func (s *service) changeOrderStatus(ctx context.Context, orderID string, newStatus enum.OrderStatus) error {
	var updated *models.Order
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		orderModel, err := s.order.GetOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		if !orderModel.AllowChangeStatus(newStatus) {
			return fmt.Errorf("invalid status transition from %s to %s", orderModel.Status, newStatus)
		}

		if err = s.order.UpdateOrderStatus(ctx, tx, orderID, newStatus); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		orderModel.Status = newStatus
		updated = orderModel
		return nil
	})
	if err != nil {
		return err
	}

	s.publishStatusChanged(updated)
	return nil
}

func (s *service) publishStatusChanged(o *models.Order) {
	payload := models.OrderEventPayload{
		OrderID: o.ID,
		BuyerID: o.BuyerID,
		Status:  o.Status,
		Total:   o.TotalAmount,
	}
	if o.CourierID != nil {
		payload.CourierID = *o.CourierID
	}
	if err := s.eventManager.Publish(enum.EventTypeOrderStatusChanged, payload); err != nil {
		s.logger.Warn("Failed to publish order status event", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// ---- profiles ----

func (s *service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profile.GetByUserID(ctx, nil, userID)
}

func (s *service) SaveProfile(ctx context.Context, p *models.Profile) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.profile.Upsert(ctx, tx, p)
	})
}

// ---- notifications ----

func (s *service) ListNotifications(ctx context.Context, userID string, limit uint64) ([]*models.Notification, error) {
	return s.notification.ListByUser(ctx, nil, userID, limit)
}

func (s *service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.notification.MarkRead(ctx, tx, id)
	})
}

func (s *service) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.notification.MarkAllRead(ctx, tx, userID)
	})
}

func (s *service) CountUnreadNotifications(ctx context.Context, userID string) (uint64, error) {
	return s.notification.CountUnread(ctx, nil, userID)
}

func notificationStatusChanged(payload models.OrderEventPayload) *models.Notification {
	return notification.NewOrderStatusChanged(uuid.NewString(), payload.BuyerID, payload.OrderID, string(payload.Status))
}

// orderSellers resolves the distinct sellers whose products appear in the
// order, in first-seen order.
func (s *service) orderSellers(ctx context.Context, orderID string) ([]string, error) {
	items, err := s.order.ListOrderItems(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	seen := make(map[string]struct{})
	var sellers []string
	for _, item := range items {
		p, err := s.catalog.GetByID(ctx, nil, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve seller for product %s: %w", item.ProductID, err)
		}
		if _, ok := seen[p.SellerID]; !ok {
			seen[p.SellerID] = struct{}{}
			sellers = append(sellers, p.SellerID)
		}
	}
	return sellers, nil
}

// ---- orphan reconciliation ----

// SweepOrphanedOrders deletes order headers that never got their line items,
// the residue of a checkout whose compensating delete also failed. Returns the
// number of headers removed.
func (s *service) SweepOrphanedOrders(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var removed int
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		ids, err := s.order.ListHeaderOnlyBefore(ctx, tx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to list orphaned orders: %w", err)
		}

		for _, id := range ids {
			if err := s.order.DeleteOrder(ctx, tx, id); err != nil {
				return fmt.Errorf("failed to delete orphaned order %s: %w", id, err)
			}
			s.logger.Info("Removed orphaned order header", zap.String("order_id", id))
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// StartOrphanSweep runs SweepOrphanedOrders on a ticker until the context is
// cancelled.
func (s *service) StartOrphanSweep(ctx context.Context, interval, olderThan time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOrphanedOrders(ctx, olderThan); err != nil {
					s.logger.Error("Orphan sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
