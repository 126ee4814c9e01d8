package core

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentService records customer payments against the debt ledger.
//
// A direct payment targets one sale. A general payment is distributed across
// the customer's outstanding sales oldest-first via AllocatePayment, producing
// one payment_distributions row per touched sale. Either way the payment
// insert, the sale updates, and the customer's current_debt decrement commit
// as a single transaction with the customer row locked, so two concurrent
// payments to the same customer serialize instead of double-applying.
type PaymentService interface {
	ApplyDirectPayment(ctx context.Context, input DirectPaymentInput) (*Payment, error)
	ApplyGeneralPayment(ctx context.Context, input GeneralPaymentInput) (*PaymentReceipt, error)
	// Simulate previews what ApplyGeneralPayment would do for amount, with
	// zero writes. Safe to call on every keystroke of an amount field.
	Simulate(ctx context.Context, customerID int64, amount decimal.Decimal) ([]Allocation, error)
	ListPayments(ctx context.Context, customerID int64) ([]Payment, error)
	GetDistributions(ctx context.Context, paymentID int64) ([]PaymentDistribution, error)
}

// DirectPaymentInput targets one sale. IdempotencyKey is optional; when set,
// a duplicate submission is rejected with zero writes.
type DirectPaymentInput struct {
	CustomerID     int64
	SaleID         int64
	Amount         decimal.Decimal
	Method         PaymentMethod
	Notes          string
	CreatedBy      *int64
	IdempotencyKey string
}

// GeneralPaymentInput is distributed across outstanding sales.
type GeneralPaymentInput struct {
	CustomerID     int64
	Amount         decimal.Decimal
	Method         PaymentMethod
	Notes          string
	CreatedBy      *int64
	IdempotencyKey string
}

// PaymentReceipt is the committed payment plus the per-sale breakdown actually
// applied.
type PaymentReceipt struct {
	Payment     Payment      `json:"payment"`
	Allocations []Allocation `json:"allocations"`
}

type paymentService struct {
	pool *pgxpool.Pool
}

// NewPaymentService constructs a PaymentService backed by PostgreSQL.
func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lockCustomerDebt locks the customer row and returns its current debt. All
// debt mutations go through this lock, which serializes concurrent payments
// and sales for the same customer.
func lockCustomerDebt(ctx context.Context, tx pgx.Tx, customerID int64) (decimal.Decimal, error) {
	var debt decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT current_debt FROM customers WHERE id = $1 FOR UPDATE",
		customerID,
	).Scan(&debt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, &NotFoundError{Entity: "customer", ID: customerID}
		}
		return decimal.Zero, &StorageError{Op: "lock customer", Err: err}
	}
	return debt, nil
}

// validatePaymentAmount enforces the two preconditions shared by both payment
// paths, with distinct user-facing messages.
func validatePaymentAmount(amount, currentDebt decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Reason: "amount must be positive"}
	}
	if amount.GreaterThan(currentDebt) {
		return &ValidationError{Reason: "amount exceeds current debt"}
	}
	return nil
}

// fetchOutstanding returns the customer's sales with status != paid and
// remaining_debt > 0, ordered sale_date ascending with id as the
// deterministic tiebreak. This order is the allocation policy: oldest debt is
// paid down first. forUpdate locks the rows when fetching inside the
// allocating transaction.
func fetchOutstanding(ctx context.Context, q querier, customerID int64, forUpdate bool) ([]OutstandingSale, error) {
	query := `
		SELECT id, sale_date, total_amount, remaining_debt
		FROM sales
		WHERE customer_id = $1 AND status <> 'paid' AND remaining_debt > 0
		ORDER BY sale_date ASC, id ASC`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := q.Query(ctx, query, customerID)
	if err != nil {
		return nil, &StorageError{Op: "query outstanding sales", Err: err}
	}
	defer rows.Close()

	var outstanding []OutstandingSale
	for rows.Next() {
		var s OutstandingSale
		if err := rows.Scan(&s.SaleID, &s.SaleDate, &s.TotalAmount, &s.RemainingDebt); err != nil {
			return nil, &StorageError{Op: "scan outstanding sale", Err: err}
		}
		outstanding = append(outstanding, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate outstanding sales", Err: err}
	}
	return outstanding, nil
}

// insertPayment writes the payment row. With an idempotency key the insert is
// ON CONFLICT DO NOTHING: a duplicate submission produces no row and is
// rejected before any sale or customer mutation happens.
func insertPayment(ctx context.Context, tx pgx.Tx, customerID int64, saleID *int64,
	amount decimal.Decimal, method PaymentMethod, notes string, createdBy *int64,
	idempotencyKey string) (*Payment, error) {

	if method == "" {
		method = PaymentMethodCash
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	p := &Payment{
		CustomerID:    customerID,
		SaleID:        saleID,
		Amount:        amount,
		PaymentMethod: method,
		Notes:         notesPtr,
		CreatedBy:     createdBy,
	}

	var err error
	if idempotencyKey != "" {
		err = tx.QueryRow(ctx, `
			INSERT INTO payments (customer_id, sale_id, amount, payment_method, notes, created_by, idempotency_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING id, payment_date, created_at
		`, customerID, saleID, amount, method, notesPtr, createdBy, idempotencyKey).
			Scan(&p.ID, &p.PaymentDate, &p.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ValidationError{Reason: "duplicate payment submission"}
		}
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO payments (customer_id, sale_id, amount, payment_method, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, payment_date, created_at
		`, customerID, saleID, amount, method, notesPtr, createdBy).
			Scan(&p.ID, &p.PaymentDate, &p.CreatedAt)
	}
	if err != nil {
		return nil, &StorageError{Op: "insert payment", Err: err}
	}
	return p, nil
}

// applyToSale moves amount from a sale's remaining debt to its paid amount and
// re-derives the status.
func applyToSale(ctx context.Context, tx pgx.Tx, saleID int64, amount decimal.Decimal,
	totalAmount, remainingDebt decimal.Decimal) error {

	newRemaining := remainingDebt.Sub(amount)
	status := StatusFor(totalAmount, newRemaining)

	_, err := tx.Exec(ctx, `
		UPDATE sales
		SET paid_amount = paid_amount + $1,
		    remaining_debt = remaining_debt - $1,
		    status = $2,
		    updated_at = now()
		WHERE id = $3
	`, amount, status, saleID)
	if err != nil {
		return &StorageError{Op: "update sale balance", Err: err}
	}
	return nil
}

func decrementCustomerDebt(ctx context.Context, tx pgx.Tx, customerID int64, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE customers
		SET current_debt = current_debt - $1, updated_at = now()
		WHERE id = $2
	`, amount, customerID)
	if err != nil {
		return &StorageError{Op: "decrement customer debt", Err: err}
	}
	return nil
}

func (s *paymentService) ApplyDirectPayment(ctx context.Context, input DirectPaymentInput) (*Payment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin payment transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	currentDebt, err := lockCustomerDebt(ctx, tx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentAmount(input.Amount, currentDebt); err != nil {
		return nil, err
	}

	var saleCustomerID *int64
	var totalAmount, remainingDebt decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT customer_id, total_amount, remaining_debt FROM sales WHERE id = $1 FOR UPDATE",
		input.SaleID,
	).Scan(&saleCustomerID, &totalAmount, &remainingDebt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "sale", ID: input.SaleID}
		}
		return nil, &StorageError{Op: "lock sale", Err: err}
	}
	if saleCustomerID == nil || *saleCustomerID != input.CustomerID {
		return nil, &ValidationError{Reason: "sale does not belong to this customer"}
	}
	if input.Amount.GreaterThan(remainingDebt) {
		return nil, &ValidationError{Reason: "amount exceeds the sale's remaining debt"}
	}

	payment, err := insertPayment(ctx, tx, input.CustomerID, &input.SaleID,
		input.Amount, input.Method, input.Notes, input.CreatedBy, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	// A direct payment touches exactly its sale; no distribution rows.
	if err := applyToSale(ctx, tx, input.SaleID, input.Amount, totalAmount, remainingDebt); err != nil {
		return nil, err
	}
	if err := decrementCustomerDebt(ctx, tx, input.CustomerID, input.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit direct payment", Err: err}
	}
	return payment, nil
}

func (s *paymentService) ApplyGeneralPayment(ctx context.Context, input GeneralPaymentInput) (*PaymentReceipt, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin payment transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	currentDebt, err := lockCustomerDebt(ctx, tx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentAmount(input.Amount, currentDebt); err != nil {
		return nil, err
	}

	outstanding, err := fetchOutstanding(ctx, tx, input.CustomerID, true)
	if err != nil {
		return nil, err
	}

	payment, err := insertPayment(ctx, tx, input.CustomerID, nil,
		input.Amount, input.Method, input.Notes, input.CreatedBy, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	allocations := AllocatePayment(input.Amount, outstanding)
	if len(allocations) == 0 {
		// Positive current_debt with nothing outstanding to absorb it means the
		// denormalized debt has drifted from the sales. The payment still
		// commits (observed behavior) but the drift must not pass silently.
		log.Printf("[RECONCILE] customer %d has current_debt %s but no outstanding sales; payment %d recorded without distributions",
			input.CustomerID, currentDebt.StringFixed(2), payment.ID)
	}

	// Allocations are produced in outstanding order, one per touched sale.
	for i, a := range allocations {
		if err := applyToSale(ctx, tx, a.SaleID, a.AmountApplied, outstanding[i].TotalAmount, a.PreviousDebt); err != nil {
			return nil, err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO payment_distributions (payment_id, sale_id, amount_applied, previous_debt, new_debt)
			VALUES ($1, $2, $3, $4, $5)
		`, payment.ID, a.SaleID, a.AmountApplied, a.PreviousDebt, a.NewDebt)
		if err != nil {
			return nil, &StorageError{Op: "insert payment distribution", Err: err}
		}
	}

	if allocated := AllocatedTotal(allocations); !allocated.Equal(input.Amount) {
		log.Printf("[RECONCILE] payment %d: allocated %s of %s across %d sales for customer %d",
			payment.ID, allocated.StringFixed(2), input.Amount.StringFixed(2), len(allocations), input.CustomerID)
	}

	// The customer is decremented by the full amount, which by construction
	// equals the allocated total whenever the ledger is consistent.
	if err := decrementCustomerDebt(ctx, tx, input.CustomerID, input.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit general payment", Err: err}
	}

	return &PaymentReceipt{Payment: *payment, Allocations: allocations}, nil
}

func (s *paymentService) Simulate(ctx context.Context, customerID int64, amount decimal.Decimal) ([]Allocation, error) {
	// Nothing to preview for an empty or cleared amount field.
	if !amount.IsPositive() {
		return nil, nil
	}

	outstanding, err := fetchOutstanding(ctx, s.pool, customerID, false)
	if err != nil {
		return nil, err
	}
	return AllocatePayment(amount, outstanding), nil
}

func (s *paymentService) ListPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, sale_id, amount, payment_date, payment_method, notes, created_by, created_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY payment_date DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, &StorageError{Op: "query payments", Err: err}
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.SaleID, &p.Amount, &p.PaymentDate,
			&p.PaymentMethod, &p.Notes, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, &StorageError{Op: "scan payment", Err: err}
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list payments", Err: err}
	}
	return payments, nil
}

func (s *paymentService) GetDistributions(ctx context.Context, paymentID int64) ([]PaymentDistribution, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, payment_id, sale_id, amount_applied, previous_debt, new_debt
		FROM payment_distributions
		WHERE payment_id = $1
		ORDER BY id
	`, paymentID)
	if err != nil {
		return nil, &StorageError{Op: "query distributions", Err: err}
	}
	defer rows.Close()

	var dists []PaymentDistribution
	for rows.Next() {
		var d PaymentDistribution
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.SaleID, &d.AmountApplied, &d.PreviousDebt, &d.NewDebt); err != nil {
			return nil, &StorageError{Op: "scan distribution", Err: err}
		}
		dists = append(dists, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list payment distributions", Err: err}
	}
	return dists, nil
}
