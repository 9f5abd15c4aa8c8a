package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gofreshmart.io/market/driver"
	"gofreshmart.io/market/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, notification *models.Notification) error
	ListByUser(ctx context.Context, tx pgx.Tx, userID string, limit uint64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, tx pgx.Tx, id string) error
	MarkAllRead(ctx context.Context, tx pgx.Tx, userID string) error
	CountUnread(ctx context.Context, tx pgx.Tx, userID string) (uint64, error)
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

func (r *repository) q(tx pgx.Tx) driver.Querier {
	if tx != nil {
		return tx
	}
	return r.conn
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, n *models.Notification) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("user_id", n.UserID), zap.Error(err))
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, tx pgx.Tx, userID string, limit uint64) ([]*models.Notification, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT id, user_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := r.q(tx).Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id); err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := r.q(tx).Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1`, userID); err != nil {
		r.logger.Error("Failed to mark notifications read", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (r *repository) CountUnread(ctx context.Context, tx pgx.Tx, userID string) (uint64, error) {
	row := r.q(tx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID,
	)

	var count uint64
	if err := row.Scan(&count); err != nil {
		r.logger.Error("Failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// NewOrderReceived builds the seller-facing alert for a freshly placed order
// containing one of the seller's products.
func NewOrderReceived(id, sellerID, orderID string, total float64) *models.Notification {
	return &models.Notification{
		ID:        id,
		UserID:    sellerID,
		Title:     "New order received",
		Message:   fmt.Sprintf("Order %s for ₹%.2f is waiting for your acceptance.", orderID, total),
		CreatedAt: time.Now(),
	}
}

// NewOrderStatusChanged builds the buyer-facing notification for a status change.
func NewOrderStatusChanged(id, userID, orderID string, status string) *models.Notification {
	return &models.Notification{
		ID:        id,
		UserID:    userID,
		Title:     "Order update",
		Message:   fmt.Sprintf("Order %s is now %s.", orderID, status),
		CreatedAt: time.Now(),
	}
}
