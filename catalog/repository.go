package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gofreshmart.io/market/driver"
	"gofreshmart.io/market/models"
)

// ErrProductNotFound is returned when no product exists for the requested id.
var ErrProductNotFound = errors.New("product not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, product *models.Product) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Product, error)
	Update(ctx context.Context, tx pgx.Tx, product *models.Product) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	List(ctx context.Context, tx pgx.Tx, limit, offset uint64) ([]*models.Product, error)
	ListByCategory(ctx context.Context, tx pgx.Tx, category string) ([]*models.Product, error)
	ListBySeller(ctx context.Context, tx pgx.Tx, sellerID string) ([]*models.Product, error)
	SearchByName(ctx context.Context, tx pgx.Tx, query string, limit uint64) ([]*models.Product, error)
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

const productColumns = `id, seller_id, name, description, price, image_url, category, unit_label, created_at, updated_at`

func (r *repository) Create(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO products (id, seller_id, name, description, price, image_url, category, unit_label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		product.ID,
		product.SellerID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.UnitLabel,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", zap.String("name", product.Name), zap.Error(err))
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*models.Product, error) {
	row := r.q(tx).QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1`,
		id,
	)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		r.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5, category = $6, unit_label = $7, updated_at = $8
		WHERE id = $1`,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
		product.UnitLabel,
		time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("product_id", product.ID), zap.Error(err))
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := r.q(tx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, tx pgx.Tx, limit, offset uint64) ([]*models.Product, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *repository) ListByCategory(ctx context.Context, tx pgx.Tx, category string) ([]*models.Product, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category = $1
		ORDER BY name`,
		category,
	)
	if err != nil {
		r.logger.Error("Failed to list products by category", zap.String("category", category), zap.Error(err))
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *repository) ListBySeller(ctx context.Context, tx pgx.Tx, sellerID string) ([]*models.Product, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		r.logger.Error("Failed to list seller products", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, fmt.Errorf("list products by seller: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *repository) SearchByName(ctx context.Context, tx pgx.Tx, query string, limit uint64) ([]*models.Product, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		r.logger.Error("Failed to search products", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImageURL,
		&p.Category,
		&p.UnitLabel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
