package notification

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofreshmart.io/market/models"
)

func newTestRepo(t *testing.T) (Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func TestCreateNotification(t *testing.T) {
	repo, mock := newTestRepo(t)
	n := &models.Notification{
		ID:        "n1",
		UserID:    "u1",
		Title:     "Order placed",
		Message:   "Your order was placed.",
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UserID, n.Title, n.Message, n.Read, n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), nil, n))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM notifications").
		WithArgs("u1", uint64(20)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "title", "message", "is_read", "created_at",
		}).AddRow("n1", "u1", "Order placed", "msg", false, now).
			AddRow("n2", "u1", "Order update", "msg", true, now))

	list, err := repo.ListByUser(context.Background(), nil, "u1", 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Read)
	assert.True(t, list[1].Read)
}

func TestCountUnread(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(uint64(3)))

	count, err := repo.CountUnread(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestMarkAllRead(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE notifications").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	require.NoError(t, repo.MarkAllRead(context.Background(), nil, "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderNotificationBuilders(t *testing.T) {
	received := NewOrderReceived("n1", "seller-1", "o1", 225.50)
	assert.Equal(t, "seller-1", received.UserID)
	assert.Equal(t, "New order received", received.Title)
	assert.Contains(t, received.Message, "o1")
	assert.Contains(t, received.Message, "225.50")
	assert.False(t, received.Read)

	changed := NewOrderStatusChanged("n2", "u1", "o1", "out_for_delivery")
	assert.Equal(t, "Order update", changed.Title)
	assert.Contains(t, changed.Message, "out_for_delivery")
}
