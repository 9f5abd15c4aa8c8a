package profile

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
)

func newTestRepo(t *testing.T) (Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func TestGetByUserID(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "full_name", "phone", "address", "role", "created_at", "updated_at",
		}).AddRow("p1", "u1", "Asha", "9999", "12 Main St", enum.RoleSeller, now, now))

	p, err := repo.GetByUserID(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.FullName)
	assert.Equal(t, enum.RoleSeller, p.Role)
}

func TestGetByUserIDNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "full_name", "phone", "address", "role", "created_at", "updated_at",
		}))

	_, err := repo.GetByUserID(context.Background(), nil, "missing")
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpsert(t *testing.T) {
	repo, mock := newTestRepo(t)
	p := &models.Profile{
		ID:        "p1",
		UserID:    "u1",
		FullName:  "Asha",
		Phone:     "9999",
		Address:   "12 Main St",
		Role:      enum.RoleBuyer,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(p.ID, p.UserID, p.FullName, p.Phone, p.Address, p.Role, p.CreatedAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Upsert(context.Background(), nil, p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoleDefaultsToBuyer(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT role FROM profiles").
		WithArgs("new-user").
		WillReturnRows(pgxmock.NewRows([]string{"role"}))

	role, err := repo.GetRole(context.Background(), nil, "new-user")
	require.NoError(t, err)
	assert.Equal(t, enum.RoleBuyer, role)
}

func TestGetRole(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT role FROM profiles").
		WithArgs("courier-1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(enum.RoleDelivery))

	role, err := repo.GetRole(context.Background(), nil, "courier-1")
	require.NoError(t, err)
	assert.Equal(t, enum.RoleDelivery, role)
}
