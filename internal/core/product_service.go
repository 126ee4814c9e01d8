package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductService manages the catalog. Products are deactivated rather than
// deleted so historical sale items keep a valid reference.
type ProductService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, productID int64, input ProductInput) (*Product, error)
	DeactivateProduct(ctx context.Context, productID int64) error
	GetProduct(ctx context.Context, productID int64) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type ProductInput struct {
	Name          string
	Brand         string
	CategoryID    *int64
	Price         decimal.Decimal
	StockQuantity int
	MinStockAlert int
}

// ProductFilter narrows ListProducts. InStock keeps only products with
// positive stock.
type ProductFilter struct {
	Search     string
	CategoryID int64
	InStock    bool
	Inactive   bool
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

const productColumns = "id, name, brand, category_id, price, stock_quantity, min_stock_alert, is_active, created_at, updated_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.CategoryID, &p.Price,
		&p.StockQuantity, &p.MinStockAlert, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func validateProduct(input ProductInput) error {
	if input.Name == "" {
		return &ValidationError{Reason: "product name is required"}
	}
	if input.Price.IsNegative() {
		return &ValidationError{Reason: "price cannot be negative"}
	}
	if input.StockQuantity < 0 {
		return &ValidationError{Reason: "stock quantity cannot be negative"}
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, brand, category_id, price, stock_quantity, min_stock_alert)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		input.Name, toPtr(input.Brand), input.CategoryID, input.Price, input.StockQuantity, input.MinStockAlert)

	p, err := scanProduct(row)
	if err != nil {
		return nil, &StorageError{Op: "insert product", Err: err}
	}
	return p, nil
}

// UpdateProduct changes catalog fields only. Stock moves through
// InventoryService so every change leaves a movement row.
func (s *productService) UpdateProduct(ctx context.Context, productID int64, input ProductInput) (*Product, error) {
	if err := validateProduct(input); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $1, brand = $2, category_id = $3, price = $4, min_stock_alert = $5, updated_at = now()
		WHERE id = $6
		RETURNING `+productColumns,
		input.Name, toPtr(input.Brand), input.CategoryID, input.Price, input.MinStockAlert, productID)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: productID}
		}
		return nil, &StorageError{Op: "update product", Err: err}
	}
	return p, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, productID int64) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET is_active = false, updated_at = now() WHERE id = $1",
		productID,
	)
	if err != nil {
		return &StorageError{Op: "deactivate product", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "product", ID: productID}
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", productID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "product", ID: productID}
		}
		return nil, &StorageError{Op: "fetch product", Err: err}
	}
	return p, nil
}

func (s *productService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE 1=1"
	var args []any

	if !filter.Inactive {
		query += " AND is_active = true"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR brand ILIKE $%d)", len(args), len(args))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.InStock {
		query += " AND stock_quantity > 0"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query products", Err: err}
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan product", Err: err}
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list products", Err: err}
	}
	return products, nil
}

func (s *productService) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	if name == "" {
		return nil, &ValidationError{Reason: "category name is required"}
	}

	var c Category
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`, name, toPtr(description)).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, &StorageError{Op: "insert category", Err: err}
	}
	return &c, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, description, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, &StorageError{Op: "query categories", Err: err}
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan category", Err: err}
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list categories", Err: err}
	}
	return categories, nil
}
