package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fanclub/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, product entity.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO products (product_id, name, price_cents, currency, stock)
		VALUES (:product_id, :name, :price_cents, :currency, :stock)
		ON CONFLICT (product_id) DO UPDATE
		SET name = EXCLUDED.name,
		    price_cents = EXCLUDED.price_cents,
		    currency = EXCLUDED.currency,
		    stock = EXCLUDED.stock
	`, product)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (entity.Product, error) {
	var product entity.Product
	err := r.db.GetContext(ctx, &product, `
		SELECT product_id, name, price_cents, currency, stock
		FROM products
		WHERE product_id = $1
	`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Product{}, fmt.Errorf("%w: product %s", entity.ErrNotFound, productID)
		}
		return entity.Product{}, fmt.Errorf("could not get product: %w", err)
	}
	return product, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT product_id, name, price_cents, currency, stock
		FROM products
		ORDER BY product_id
	`)
	return products, err
}
