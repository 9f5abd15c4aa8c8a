package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gofreshmart.io/market/driver"
	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
)

// ErrOrderNotFound is returned when no order exists for the requested id.
var ErrOrderNotFound = errors.New("order not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *models.Order) error
	GetOrder(ctx context.Context, tx pgx.Tx, orderID string) (*models.Order, error)
	DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) error
	UpdateOrderStatus(ctx context.Context, tx pgx.Tx, orderID string, status enum.OrderStatus) error
	AssignCourier(ctx context.Context, tx pgx.Tx, orderID, courierID string) error
	ListOrdersByBuyer(ctx context.Context, tx pgx.Tx, buyerID string, limit, offset uint64) ([]*models.Order, error)
	ListOrdersBySeller(ctx context.Context, tx pgx.Tx, sellerID string, limit, offset uint64) ([]*models.Order, error)
	ListUnassigned(ctx context.Context, tx pgx.Tx) ([]*models.Order, error)
	ListActiveByCourier(ctx context.Context, tx pgx.Tx, courierID string) ([]*models.Order, error)

	AddOrderItems(ctx context.Context, tx pgx.Tx, items []*models.OrderItem) error
	ListOrderItems(ctx context.Context, tx pgx.Tx, orderID string) ([]models.OrderItem, error)

	// ListHeaderOnlyBefore returns ids of orders that have no line items and
	// were created before the cutoff. Feeds the orphan reconciliation sweep.
	ListHeaderOnlyBefore(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]string, error)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

// q returns the transaction when one is open, the pool otherwise.
func (r *repository) q(tx pgx.Tx) driver.Querier {
	if tx != nil {
		return tx
	}
	return r.conn
}

const orderColumns = `id, buyer_id, courier_id, delivery_address, status, currency, total_amount, created_at, updated_at`

func (r *repository) CreateOrder(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO orders (id, buyer_id, courier_id, delivery_address, status, currency, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID,
		order.BuyerID,
		order.CourierID,
		order.DeliveryAddress,
		order.Status,
		order.Currency,
		order.TotalAmount,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repository) GetOrder(ctx context.Context, tx pgx.Tx, orderID string) (*models.Order, error) {
	row := r.q(tx).QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`,
		orderID,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		r.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.ListOrderItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *repository) DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) error {
	if _, err := r.q(tx).Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		r.logger.Error("Failed to delete order items", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := r.q(tx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		r.logger.Error("Failed to delete order", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, tx pgx.Tx, orderID string, status enum.OrderStatus) error {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1`,
		orderID, status, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) AssignCourier(ctx context.Context, tx pgx.Tx, orderID, courierID string) error {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE orders
		SET courier_id = $2, updated_at = $3
		WHERE id = $1`,
		orderID, courierID, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to assign courier", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("assign courier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) ListOrdersByBuyer(ctx context.Context, tx pgx.Tx, buyerID string, limit, offset uint64) ([]*models.Order, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		buyerID, limit, offset,
	)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.String("buyer_id", buyerID), zap.Error(err))
		return nil, fmt.Errorf("list orders by buyer: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ListOrdersBySeller finds orders containing at least one of the seller's
// products.
func (r *repository) ListOrdersBySeller(ctx context.Context, tx pgx.Tx, sellerID string, limit, offset uint64) ([]*models.Order, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT DISTINCT o.id, o.buyer_id, o.courier_id, o.delivery_address, o.status, o.currency, o.total_amount, o.created_at, o.updated_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`,
		sellerID, limit, offset,
	)
	if err != nil {
		r.logger.Error("Failed to list seller orders", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, fmt.Errorf("list orders by seller: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *repository) ListUnassigned(ctx context.Context, tx pgx.Tx) ([]*models.Order, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = $1 AND courier_id IS NULL
		ORDER BY created_at`,
		enum.OrderStatusAccepted,
	)
	if err != nil {
		r.logger.Error("Failed to list unassigned orders", zap.Error(err))
		return nil, fmt.Errorf("list unassigned orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *repository) ListActiveByCourier(ctx context.Context, tx pgx.Tx, courierID string) ([]*models.Order, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE courier_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at`,
		courierID, enum.OrderStatusDelivered, enum.OrderStatusCancelled,
	)
	if err != nil {
		r.logger.Error("Failed to list courier orders", zap.String("courier_id", courierID), zap.Error(err))
		return nil, fmt.Errorf("list active orders by courier: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *repository) AddOrderItems(ctx context.Context, tx pgx.Tx, items []*models.OrderItem) error {
	for _, item := range items {
		_, err := r.q(tx).Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			r.logger.Error("Failed to add order item",
				zap.String("order_id", item.OrderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}
	return nil
}

func (r *repository) ListOrderItems(ctx context.Context, tx pgx.Tx, orderID string) ([]models.OrderItem, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		r.logger.Error("Failed to list order items", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) ListHeaderOnlyBefore(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]string, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT o.id
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE oi.id IS NULL AND o.created_at < $1`,
		cutoff,
	)
	if err != nil {
		r.logger.Error("Failed to list header-only orders", zap.Error(err))
		return nil, fmt.Errorf("list header-only orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.CourierID,
		&o.DeliveryAddress,
		&o.Status,
		&o.Currency,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
