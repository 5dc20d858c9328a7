package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, category, price, available
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, category, price, available
		FROM products WHERE id = $1`

	listVariantsSQL = `SELECT id, product_id, name, price
		FROM product_variants WHERE product_id = ANY($1) ORDER BY id`

	getProductPriceSQL = `SELECT price FROM products WHERE id = $1 AND available = TRUE`

	getVariantPriceSQL = `SELECT v.price FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND v.product_id = $2 AND p.available = TRUE`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements the read-only catalog lookups backed by
// PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all products with their variants.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	variantRows, err := r.pool.Query(ctx, listVariantsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing product variants: %w", err)
	}
	variants, err := pgx.CollectRows(variantRows, scanVariantRow)
	if err != nil {
		return nil, fmt.Errorf("listing product variants: %w", err)
	}
	for _, v := range variants {
		i := index[v.productID]
		products[i].Variants = append(products[i].Variants, v.variant)
	}
	return products, nil
}

// GetByID returns a single product with its variants.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	variantRows, err := r.pool.Query(ctx, listVariantsSQL, []string{id})
	if err != nil {
		return nil, fmt.Errorf("listing variants of product %q: %w", id, err)
	}
	variants, err := pgx.CollectRows(variantRows, scanVariantRow)
	if err != nil {
		return nil, fmt.Errorf("listing variants of product %q: %w", id, err)
	}
	for _, v := range variants {
		p.Variants = append(p.Variants, v.variant)
	}
	return &p, nil
}

// GetUnitPrice resolves the current price of a product or, when variantID is
// non-empty, of that specific variant. Unavailable products are treated as
// absent.
func (r *CatalogRepository) GetUnitPrice(ctx context.Context, productID, variantID string) (decimal.Decimal, error) {
	var price decimal.Decimal
	var err error
	if variantID == "" {
		err = r.pool.QueryRow(ctx, getProductPriceSQL, productID).Scan(&price)
	} else {
		err = r.pool.QueryRow(ctx, getVariantPriceSQL, variantID, productID).Scan(&price)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, catalog.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("getting unit price for %q/%q: %w", productID, variantID, err)
	}
	return price, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Available)
	return p, err
}

type variantRow struct {
	productID string
	variant   catalog.Variant
}

func scanVariantRow(row pgx.CollectableRow) (variantRow, error) {
	var v variantRow
	err := row.Scan(&v.variant.ID, &v.productID, &v.variant.Name, &v.variant.Price)
	return v, err
}
