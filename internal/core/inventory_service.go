package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryService tracks stock levels and the movement log behind them.
// Every stock change, whatever its origin, leaves an inventory_movements row
// with the before and after quantities. The Tx-suffixed methods run inside a
// caller-owned transaction so sale creation and deletion can move stock
// atomically with the sale rows.
type InventoryService interface {
	Restock(ctx context.Context, input RestockInput) (*InventoryMovement, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*InventoryMovement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]InventoryMovement, error)
	LowStock(ctx context.Context) ([]Product, error)

	DeductForSaleTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int, saleID int64, createdBy *int64) error
	RestoreForSaleTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int, saleID int64) error
}

type RestockInput struct {
	ProductID int64
	Quantity  int
	Reason    string
	CreatedBy *int64
}

// AdjustStockInput sets an absolute stock level; the movement records the
// signed delta from the previous level.
type AdjustStockInput struct {
	ProductID   int64
	NewQuantity int
	Reason      string
	CreatedBy   *int64
}

type MovementFilter struct {
	ProductID    int64
	MovementType MovementType
	Limit        int
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

func (s *inventoryService) Restock(ctx context.Context, input RestockInput) (*InventoryMovement, error) {
	if input.Quantity <= 0 {
		return nil, &ValidationError{Reason: "restock quantity must be positive"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin restock transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	before, err := lockProductStock(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}
	after := before + input.Quantity

	if err := setStock(ctx, tx, input.ProductID, after); err != nil {
		return nil, err
	}

	mv, err := insertMovement(ctx, tx, movementRecord{
		productID:     input.ProductID,
		movementType:  MovementPurchase,
		quantity:      input.Quantity,
		previousStock: before,
		newStock:      after,
		reason:        input.Reason,
		createdBy:     input.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit restock", Err: err}
	}
	return mv, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, input AdjustStockInput) (*InventoryMovement, error) {
	if input.NewQuantity < 0 {
		return nil, &ValidationError{Reason: "stock level cannot be negative"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin adjustment transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	before, err := lockProductStock(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if before == input.NewQuantity {
		return nil, &ValidationError{Reason: "stock level is already at that quantity"}
	}

	if err := setStock(ctx, tx, input.ProductID, input.NewQuantity); err != nil {
		return nil, err
	}

	mv, err := insertMovement(ctx, tx, movementRecord{
		productID:     input.ProductID,
		movementType:  MovementAdjustment,
		quantity:      input.NewQuantity - before,
		previousStock: before,
		newStock:      input.NewQuantity,
		reason:        input.Reason,
		createdBy:     input.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit adjustment", Err: err}
	}
	return mv, nil
}

// DeductForSaleTx removes quantity from stock as part of a sale. The caller
// already holds the product row lock from its price-snapshot query.
func (s *inventoryService) DeductForSaleTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int, saleID int64, createdBy *int64) error {
	var before int
	err := tx.QueryRow(ctx,
		"SELECT stock_quantity FROM products WHERE id = $1",
		productID,
	).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "product", ID: productID}
		}
		return &StorageError{Op: "read product stock", Err: err}
	}
	if before < quantity {
		return &ValidationError{Reason: fmt.Sprintf("insufficient stock for product %d", productID)}
	}
	after := before - quantity

	if err := setStock(ctx, tx, productID, after); err != nil {
		return err
	}

	_, err = insertMovement(ctx, tx, movementRecord{
		productID:     productID,
		movementType:  MovementSale,
		quantity:      -quantity,
		previousStock: before,
		newStock:      after,
		reason:        fmt.Sprintf("sale %d", saleID),
		createdBy:     createdBy,
	})
	return err
}

// RestoreForSaleTx puts quantity back when a sale is deleted. Recorded as an
// adjustment so the movement log never shows a sale deduction reversed by a
// second sale entry.
func (s *inventoryService) RestoreForSaleTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int, saleID int64) error {
	before, err := lockProductStock(ctx, tx, productID)
	if err != nil {
		return err
	}
	after := before + quantity

	if err := setStock(ctx, tx, productID, after); err != nil {
		return err
	}

	_, err = insertMovement(ctx, tx, movementRecord{
		productID:     productID,
		movementType:  MovementAdjustment,
		quantity:      quantity,
		previousStock: before,
		newStock:      after,
		reason:        fmt.Sprintf("restored from deleted sale %d", saleID),
	})
	return err
}

func lockProductStock(ctx context.Context, tx pgx.Tx, productID int64) (int, error) {
	var stock int
	err := tx.QueryRow(ctx,
		"SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE",
		productID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &NotFoundError{Entity: "product", ID: productID}
		}
		return 0, &StorageError{Op: "lock product", Err: err}
	}
	return stock, nil
}

func setStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	_, err := tx.Exec(ctx,
		"UPDATE products SET stock_quantity = $1, updated_at = now() WHERE id = $2",
		quantity, productID,
	)
	if err != nil {
		return &StorageError{Op: "update stock", Err: err}
	}
	return nil
}

type movementRecord struct {
	productID     int64
	movementType  MovementType
	quantity      int
	previousStock int
	newStock      int
	reason        string
	createdBy     *int64
}

func insertMovement(ctx context.Context, tx pgx.Tx, rec movementRecord) (*InventoryMovement, error) {
	var reasonPtr *string
	if rec.reason != "" {
		reasonPtr = &rec.reason
	}

	mv := &InventoryMovement{
		ProductID:     rec.productID,
		MovementType:  rec.movementType,
		Quantity:      rec.quantity,
		PreviousStock: rec.previousStock,
		NewStock:      rec.newStock,
		Reason:        reasonPtr,
		CreatedBy:     rec.createdBy,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO inventory_movements (product_id, movement_type, quantity, previous_stock, new_stock, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, rec.productID, rec.movementType, rec.quantity, rec.previousStock, rec.newStock, reasonPtr, rec.createdBy).
		Scan(&mv.ID, &mv.CreatedAt)
	if err != nil {
		return nil, &StorageError{Op: "insert inventory movement", Err: err}
	}
	return mv, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter MovementFilter) ([]InventoryMovement, error) {
	query := `
		SELECT m.id, m.product_id, p.name, m.movement_type, m.quantity,
		       m.previous_stock, m.new_stock, m.reason, m.created_by, m.created_at
		FROM inventory_movements m
		JOIN products p ON p.id = m.product_id
		WHERE 1=1`
	var args []any

	if filter.ProductID != 0 {
		args = append(args, filter.ProductID)
		query += fmt.Sprintf(" AND m.product_id = $%d", len(args))
	}
	if filter.MovementType != "" {
		args = append(args, filter.MovementType)
		query += fmt.Sprintf(" AND m.movement_type = $%d", len(args))
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query movements", Err: err}
	}
	defer rows.Close()

	var movements []InventoryMovement
	for rows.Next() {
		var mv InventoryMovement
		if err := rows.Scan(&mv.ID, &mv.ProductID, &mv.ProductName, &mv.MovementType,
			&mv.Quantity, &mv.PreviousStock, &mv.NewStock, &mv.Reason,
			&mv.CreatedBy, &mv.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan movement", Err: err}
		}
		movements = append(movements, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list inventory movements", Err: err}
	}
	return movements, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, brand, category_id, price, stock_quantity, min_stock_alert,
		       is_active, created_at, updated_at
		FROM products
		WHERE is_active = true AND stock_quantity <= min_stock_alert
		ORDER BY stock_quantity ASC, name
	`)
	if err != nil {
		return nil, &StorageError{Op: "query low stock", Err: err}
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.CategoryID, &p.Price,
			&p.StockQuantity, &p.MinStockAlert, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "scan product", Err: err}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list low stock products", Err: err}
	}
	return products, nil
}
