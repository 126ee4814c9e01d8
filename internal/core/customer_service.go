package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CustomerService manages the customer roster. Customers are deactivated, not
// deleted, so sales and payments always resolve to a name.
type CustomerService interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, input CustomerInput) (*Customer, error)
	DeactivateCustomer(ctx context.Context, customerID int64) error
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	GetCustomerDetail(ctx context.Context, customerID int64) (*CustomerDetail, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]Customer, error)
}

type CustomerInput struct {
	FullName string
	Phone    string
	Email    string
	Address  string
	Notes    string
}

// CustomerFilter narrows ListCustomers. WithDebt keeps only customers whose
// current_debt is positive.
type CustomerFilter struct {
	Search   string
	WithDebt bool
	Inactive bool
}

// CustomerDetail is the full account view: the customer with their sale and
// payment history and lifetime totals.
type CustomerDetail struct {
	Customer   Customer        `json:"customer"`
	Sales      []Sale          `json:"sales"`
	Payments   []Payment       `json:"payments"`
	TotalSales decimal.Decimal `json:"total_sales"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = "id, full_name, phone, email, address, current_debt, is_active, notes, created_at, updated_at"

// toPtr maps an empty string to NULL.
func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email, &c.Address,
		&c.CurrentDebt, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, input CustomerInput) (*Customer, error) {
	if input.FullName == "" {
		return nil, &ValidationError{Reason: "customer name is required"}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (full_name, phone, email, address, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		input.FullName, toPtr(input.Phone), toPtr(input.Email), toPtr(input.Address), toPtr(input.Notes))

	c, err := scanCustomer(row)
	if err != nil {
		return nil, &StorageError{Op: "insert customer", Err: err}
	}
	return c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, input CustomerInput) (*Customer, error) {
	if input.FullName == "" {
		return nil, &ValidationError{Reason: "customer name is required"}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE customers
		SET full_name = $1, phone = $2, email = $3, address = $4, notes = $5, updated_at = now()
		WHERE id = $6
		RETURNING `+customerColumns,
		input.FullName, toPtr(input.Phone), toPtr(input.Email), toPtr(input.Address), toPtr(input.Notes), customerID)

	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: customerID}
		}
		return nil, &StorageError{Op: "update customer", Err: err}
	}
	return c, nil
}

// DeactivateCustomer refuses while debt is outstanding: a hidden debtor is a
// debt nobody collects.
func (s *customerService) DeactivateCustomer(ctx context.Context, customerID int64) error {
	var debt decimal.Decimal
	err := s.pool.QueryRow(ctx,
		"SELECT current_debt FROM customers WHERE id = $1",
		customerID,
	).Scan(&debt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "customer", ID: customerID}
		}
		return &StorageError{Op: "fetch customer", Err: err}
	}
	if debt.IsPositive() {
		return &ValidationError{Reason: "cannot deactivate a customer with outstanding debt"}
	}

	_, err = s.pool.Exec(ctx,
		"UPDATE customers SET is_active = false, updated_at = now() WHERE id = $1",
		customerID,
	)
	if err != nil {
		return &StorageError{Op: "deactivate customer", Err: err}
	}
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1", customerID)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: customerID}
		}
		return nil, &StorageError{Op: "fetch customer", Err: err}
	}
	return c, nil
}

func (s *customerService) GetCustomerDetail(ctx context.Context, customerID int64) (*CustomerDetail, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	detail := &CustomerDetail{
		Customer:   *customer,
		TotalSales: decimal.Zero,
		TotalPaid:  decimal.Zero,
	}

	saleRows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, sale_date, total_amount, paid_amount, remaining_debt,
		       status, payment_type, notes, created_by, created_at, updated_at
		FROM sales
		WHERE customer_id = $1
		ORDER BY sale_date DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, &StorageError{Op: "query customer sales", Err: err}
	}
	defer saleRows.Close()

	for saleRows.Next() {
		var sale Sale
		if err := saleRows.Scan(&sale.ID, &sale.CustomerID, &sale.SaleDate,
			&sale.TotalAmount, &sale.PaidAmount, &sale.RemainingDebt, &sale.Status,
			&sale.PaymentType, &sale.Notes, &sale.CreatedBy, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "scan sale", Err: err}
		}
		sale.CustomerName = customer.FullName
		detail.TotalSales = detail.TotalSales.Add(sale.TotalAmount)
		detail.Sales = append(detail.Sales, sale)
	}
	if err := saleRows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate customer sales", Err: err}
	}

	payRows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, sale_id, amount, payment_date, payment_method, notes, created_by, created_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY payment_date DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, &StorageError{Op: "query customer payments", Err: err}
	}
	defer payRows.Close()

	for payRows.Next() {
		var p Payment
		if err := payRows.Scan(&p.ID, &p.CustomerID, &p.SaleID, &p.Amount,
			&p.PaymentDate, &p.PaymentMethod, &p.Notes, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan payment", Err: err}
		}
		detail.TotalPaid = detail.TotalPaid.Add(p.Amount)
		detail.Payments = append(detail.Payments, p)
	}
	if err := payRows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate customer payments", Err: err}
	}

	return detail, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter CustomerFilter) ([]Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE 1=1"
	var args []any

	if !filter.Inactive {
		query += " AND is_active = true"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (full_name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args))
	}
	if filter.WithDebt {
		query += " AND current_debt > 0"
	}
	query += " ORDER BY current_debt DESC, full_name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query customers", Err: err}
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan customer", Err: err}
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list customers", Err: err}
	}
	return customers, nil
}
