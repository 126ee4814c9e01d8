package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SaleService manages the sale lifecycle: creation (with line items, price
// snapshots, and stock deduction) and hard deletion (with stock restoration
// and debt reversal). Both paths mutate the customer's current_debt inside the
// same transaction as the sale rows, which is what keeps the aggregate-debt
// invariant true at every commit point.
type SaleService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error)
	DeleteSale(ctx context.Context, saleID int64) error
	GetSale(ctx context.Context, saleID int64) (*Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)
}

// SaleLineInput is one cart line. The unit price is read from the product at
// sale time, never supplied by the caller.
type SaleLineInput struct {
	ProductID int64
	Quantity  int
}

type CreateSaleInput struct {
	CustomerID  int64
	Lines       []SaleLineInput
	PaymentType PaymentType
	Notes       string
	CreatedBy   *int64
}

// SaleFilter narrows ListSales. Zero values mean "no constraint".
type SaleFilter struct {
	CustomerID int64
	Status     SaleStatus
	From       time.Time
	To         time.Time
	Limit      int
}

type saleService struct {
	pool *pgxpool.Pool
	inv  InventoryService
}

// NewSaleService constructs a SaleService backed by PostgreSQL. Stock changes
// ride the sale transaction through inv's TX-scoped methods.
func NewSaleService(pool *pgxpool.Pool, inv InventoryService) SaleService {
	return &saleService{pool: pool, inv: inv}
}

func (s *saleService) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if input.CustomerID == 0 {
		return nil, &ValidationError{Reason: "customer is required"}
	}
	if len(input.Lines) == 0 {
		return nil, &ValidationError{Reason: "sale must have at least one item"}
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Reason: "item quantity must be positive"}
		}
	}
	if input.PaymentType != PaymentTypeCash && input.PaymentType != PaymentTypeCredit {
		return nil, &ValidationError{Reason: "payment type must be cash or credit"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin sale transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := lockCustomerDebt(ctx, tx, input.CustomerID); err != nil {
		return nil, err
	}

	// Resolve each line against the live product: snapshot the price, verify
	// stock. Product rows are locked so the deduction below cannot race a
	// concurrent sale of the same item.
	type resolvedLine struct {
		productID int64
		quantity  int
		unitPrice decimal.Decimal
		subtotal  decimal.Decimal
	}
	var resolved []resolvedLine
	total := decimal.Zero

	for i, line := range input.Lines {
		var price decimal.Decimal
		var stock int
		var name string
		err := tx.QueryRow(ctx,
			"SELECT name, price, stock_quantity FROM products WHERE id = $1 AND is_active = true FOR UPDATE",
			line.ProductID,
		).Scan(&name, &price, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Entity: "product", ID: line.ProductID}
			}
			return nil, &StorageError{Op: fmt.Sprintf("resolve sale line %d", i+1), Err: err}
		}
		if stock < line.Quantity {
			return nil, &ValidationError{Reason: fmt.Sprintf("insufficient stock for %s: %d available, %d requested", name, stock, line.Quantity)}
		}

		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)
		resolved = append(resolved, resolvedLine{
			productID: line.ProductID,
			quantity:  line.Quantity,
			unitPrice: price,
			subtotal:  subtotal,
		})
	}

	// A cash sale is born fully paid; a credit sale carries its whole total
	// as debt.
	paid := decimal.Zero
	remaining := total
	status := SaleStatusPending
	if input.PaymentType == PaymentTypeCash {
		paid = total
		remaining = decimal.Zero
		status = SaleStatusPaid
	}

	var notesPtr *string
	if input.Notes != "" {
		notesPtr = &input.Notes
	}

	var saleID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, total_amount, paid_amount, remaining_debt, status, payment_type, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, input.CustomerID, total, paid, remaining, status, input.PaymentType, notesPtr, input.CreatedBy).Scan(&saleID)
	if err != nil {
		return nil, &StorageError{Op: "insert sale", Err: err}
	}

	for i, rl := range resolved {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, rl.productID, rl.quantity, rl.unitPrice, rl.subtotal)
		if err != nil {
			return nil, &StorageError{Op: fmt.Sprintf("insert sale item %d", i+1), Err: err}
		}

		if err := s.inv.DeductForSaleTx(ctx, tx, rl.productID, rl.quantity, saleID, input.CreatedBy); err != nil {
			return nil, err
		}
	}

	switch input.PaymentType {
	case PaymentTypeCash:
		notes := "cash sale payment"
		if _, err := insertPayment(ctx, tx, input.CustomerID, &saleID, total,
			PaymentMethodCash, notes, input.CreatedBy, ""); err != nil {
			return nil, err
		}
	case PaymentTypeCredit:
		_, err = tx.Exec(ctx, `
			UPDATE customers SET current_debt = current_debt + $1, updated_at = now() WHERE id = $2
		`, total, input.CustomerID)
		if err != nil {
			return nil, &StorageError{Op: "increment customer debt", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit sale", Err: err}
	}

	return s.GetSale(ctx, saleID)
}

func (s *saleService) DeleteSale(ctx context.Context, saleID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &StorageError{Op: "begin delete transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	// Customer row first, then the sale row, the same lock order payment
	// application takes.
	var customerID *int64
	err = tx.QueryRow(ctx,
		"SELECT customer_id FROM sales WHERE id = $1", saleID,
	).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "sale", ID: saleID}
		}
		return &StorageError{Op: "read sale customer", Err: err}
	}

	if customerID != nil {
		if _, err := lockCustomerDebt(ctx, tx, *customerID); err != nil {
			return err
		}
	}

	var remainingDebt decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT remaining_debt FROM sales WHERE id = $1 FOR UPDATE",
		saleID,
	).Scan(&remainingDebt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "sale", ID: saleID}
		}
		return &StorageError{Op: "lock sale", Err: err}
	}

	// Put the sold quantities back on the shelf before the items disappear
	// with the sale. Each restoration is logged as an adjustment movement.
	rows, err := tx.Query(ctx,
		"SELECT product_id, quantity FROM sale_items WHERE sale_id = $1",
		saleID,
	)
	if err != nil {
		return &StorageError{Op: "query sale items", Err: err}
	}
	type itemQty struct {
		productID int64
		quantity  int
	}
	var items []itemQty
	for rows.Next() {
		var it itemQty
		if err := rows.Scan(&it.productID, &it.quantity); err != nil {
			rows.Close()
			return &StorageError{Op: "scan sale item", Err: err}
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &StorageError{Op: "iterate sale items", Err: err}
	}

	for _, it := range items {
		if err := s.inv.RestoreForSaleTx(ctx, tx, it.productID, it.quantity, saleID); err != nil {
			return err
		}
	}

	// Items and distribution rows go with the sale via ON DELETE CASCADE;
	// payments keep their history with sale_id nulled.
	if _, err := tx.Exec(ctx, "DELETE FROM sales WHERE id = $1", saleID); err != nil {
		return &StorageError{Op: "delete sale", Err: err}
	}

	if customerID != nil && remainingDebt.IsPositive() {
		if err := decrementCustomerDebt(ctx, tx, *customerID, remainingDebt); err != nil {
			return err
		}
	}

	// The decrement above trusts the deleted sale's own remaining_debt. Check
	// the aggregate against the surviving sales before committing and flag any
	// drift instead of assuming the delta was enough.
	if customerID != nil {
		var currentDebt, salesTotal decimal.Decimal
		err = tx.QueryRow(ctx, `
			SELECT c.current_debt, COALESCE(SUM(s.remaining_debt), 0)
			FROM customers c
			LEFT JOIN sales s ON s.customer_id = c.id
			WHERE c.id = $1
			GROUP BY c.current_debt
		`, *customerID).Scan(&currentDebt, &salesTotal)
		if err != nil {
			return &StorageError{Op: "verify customer debt", Err: err}
		}
		if !currentDebt.Equal(salesTotal) {
			log.Printf("[RECONCILE] after deleting sale %d: %s", saleID,
				DebtMismatch{CustomerID: *customerID, CurrentDebt: currentDebt, SalesTotal: salesTotal})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &StorageError{Op: "commit sale deletion", Err: err}
	}
	return nil
}

func (s *saleService) GetSale(ctx context.Context, saleID int64) (*Sale, error) {
	var sale Sale
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.customer_id, COALESCE(c.full_name, ''), s.sale_date,
		       s.total_amount, s.paid_amount, s.remaining_debt, s.status,
		       s.payment_type, s.notes, s.created_by, s.created_at, s.updated_at
		FROM sales s
		LEFT JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, saleID).Scan(
		&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.SaleDate,
		&sale.TotalAmount, &sale.PaidAmount, &sale.RemainingDebt, &sale.Status,
		&sale.PaymentType, &sale.Notes, &sale.CreatedBy, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "sale", ID: saleID}
		}
		return nil, &StorageError{Op: "fetch sale", Err: err}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.unit_price, si.subtotal, si.created_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, &StorageError{Op: "query sale items", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan sale item", Err: err}
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate sale items", Err: err}
	}
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error) {
	query := `
		SELECT s.id, s.customer_id, COALESCE(c.full_name, ''), s.sale_date,
		       s.total_amount, s.paid_amount, s.remaining_debt, s.status,
		       s.payment_type, s.notes, s.created_by, s.created_at, s.updated_at
		FROM sales s
		LEFT JOIN customers c ON c.id = s.customer_id
		WHERE 1=1`
	var args []any

	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND s.customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND s.sale_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND s.sale_date <= $%d", len(args))
	}
	query += " ORDER BY s.sale_date DESC, s.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query sales", Err: err}
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.SaleDate,
			&sale.TotalAmount, &sale.PaidAmount, &sale.RemainingDebt, &sale.Status,
			&sale.PaymentType, &sale.Notes, &sale.CreatedBy, &sale.CreatedAt, &sale.UpdatedAt,
		); err != nil {
			return nil, &StorageError{Op: "scan sale", Err: err}
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list sales", Err: err}
	}
	return sales, nil
}
