package catalog

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

func sampleProduct() *models.Product {
	now := time.Now().Truncate(time.Microsecond)
	return &models.Product{
		ID:          "v1",
		SellerID:    "seller-1",
		Name:        "Tomatoes",
		Description: "Farm fresh",
		Price:       40,
		ImageURL:    "img/tomatoes.jpg",
		Category:    "vegetables",
		UnitLabel:   "500g",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRows(p *models.Product) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "seller_id", "name", "description", "price", "image_url",
		"category", "unit_label", "created_at", "updated_at",
	}).AddRow(p.ID, p.SellerID, p.Name, p.Description, p.Price, p.ImageURL,
		p.Category, p.UnitLabel, p.CreatedAt, p.UpdatedAt)
}

func TestCreateProduct(t *testing.T) {
	repo, mock := newTestRepo(t)
	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.SellerID, p.Name, p.Description, p.Price, p.ImageURL,
			p.Category, p.UnitLabel, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), nil, p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "seller_id", "name", "description", "price", "image_url",
			"category", "unit_label", "created_at", "updated_at",
		}))

	_, err := repo.GetByID(context.Background(), nil, "missing")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateProductNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(p.ID, p.Name, p.Description, p.Price, p.ImageURL,
			p.Category, p.UnitLabel, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, repo.Update(context.Background(), nil, p), ErrProductNotFound)
}

func TestListByCategory(t *testing.T) {
	repo, mock := newTestRepo(t)
	p := sampleProduct()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("vegetables").
		WillReturnRows(productRows(p))

	products, err := repo.ListByCategory(context.Background(), nil, "vegetables")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tomatoes", products[0].Name)
}

func TestSearchByName(t *testing.T) {
	repo, mock := newTestRepo(t)
	p := sampleProduct()

	mock.ExpectQuery("ILIKE").
		WithArgs("toma", uint64(20)).
		WillReturnRows(productRows(p))

	products, err := repo.SearchByName(context.Background(), nil, "toma", 20)
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestProductToCartLineSnapshot(t *testing.T) {
	p := sampleProduct()
	line := p.ToCartLine(3)

	assert.Equal(t, p.ID, line.ProductID)
	assert.Equal(t, p.Name, line.DisplayName)
	assert.Equal(t, p.Price, line.UnitPrice)
	assert.Equal(t, uint64(3), line.Quantity)
	assert.Equal(t, "500g", line.UnitLabel)
}
