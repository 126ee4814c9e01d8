package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DebtService cross-checks the denormalized customers.current_debt against the
// sum of remaining_debt over each customer's sales. It never repairs anything;
// a mismatch is returned to the caller as evidence.
type DebtService interface {
	VerifyCustomerDebt(ctx context.Context, customerID int64) (*DebtMismatch, error)
	VerifyAllDebts(ctx context.Context) ([]DebtMismatch, error)
}

type debtService struct {
	pool *pgxpool.Pool
}

func NewDebtService(pool *pgxpool.Pool) DebtService {
	return &debtService{pool: pool}
}

// VerifyCustomerDebt returns nil when the customer's books balance, or the
// mismatch when they do not.
func (s *debtService) VerifyCustomerDebt(ctx context.Context, customerID int64) (*DebtMismatch, error) {
	var currentDebt, salesTotal decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT c.current_debt, COALESCE(SUM(s.remaining_debt), 0)
		FROM customers c
		LEFT JOIN sales s ON s.customer_id = c.id
		WHERE c.id = $1
		GROUP BY c.current_debt
	`, customerID).Scan(&currentDebt, &salesTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "customer", ID: customerID}
		}
		return nil, &StorageError{Op: "verify customer debt", Err: err}
	}

	if currentDebt.Equal(salesTotal) {
		return nil, nil
	}
	return &DebtMismatch{CustomerID: customerID, CurrentDebt: currentDebt, SalesTotal: salesTotal}, nil
}

// VerifyAllDebts sweeps every customer and returns the mismatches found. An
// empty slice means the ledger balances.
func (s *debtService) VerifyAllDebts(ctx context.Context) ([]DebtMismatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.current_debt, COALESCE(SUM(s.remaining_debt), 0) AS sales_total
		FROM customers c
		LEFT JOIN sales s ON s.customer_id = c.id
		GROUP BY c.id, c.current_debt
		HAVING c.current_debt <> COALESCE(SUM(s.remaining_debt), 0)
		ORDER BY c.id
	`)
	if err != nil {
		return nil, &StorageError{Op: "verify debts", Err: err}
	}
	defer rows.Close()

	var mismatches []DebtMismatch
	for rows.Next() {
		var m DebtMismatch
		if err := rows.Scan(&m.CustomerID, &m.CurrentDebt, &m.SalesTotal); err != nil {
			return nil, &StorageError{Op: "scan debt mismatch", Err: err}
		}
		mismatches = append(mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "verify customer debts", Err: err}
	}
	return mismatches, nil
}
