package core_test

import (
	"context"
	"os"
	"testing"

	"pos-ledger/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payment_distributions, payments, inventory_movements,
			sale_items, sales, products, categories, customers, users CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func createTestCustomer(t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO customers (full_name) VALUES ($1) RETURNING id", name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestProduct(t *testing.T, pool *pgxpool.Pool, name, price string, stock int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO products (name, price, stock_quantity) VALUES ($1, $2, $3) RETURNING id",
		name, price, stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// createCreditSale records a one-line credit sale through the real service so
// stock, debt, and status all move the way production writes do.
func createCreditSale(t *testing.T, pool *pgxpool.Pool, customerID, productID int64, qty int) *core.Sale {
	t.Helper()
	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(context.Background(), core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: qty}},
		PaymentType: core.PaymentTypeCredit,
	})
	require.NoError(t, err)
	return sale
}

// backdateSale pushes a sale into the past so ordering assertions do not
// depend on insertion timestamps.
func backdateSale(t *testing.T, pool *pgxpool.Pool, saleID int64, daysAgo int) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"UPDATE sales SET sale_date = now() - ($1 || ' days')::interval WHERE id = $2",
		daysAgo, saleID)
	require.NoError(t, err)
}

func customerDebt(t *testing.T, pool *pgxpool.Pool, customerID int64) string {
	t.Helper()
	var debt string
	err := pool.QueryRow(context.Background(),
		"SELECT current_debt::text FROM customers WHERE id = $1", customerID,
	).Scan(&debt)
	require.NoError(t, err)
	return debt
}

func TestGeneralPayment_DistributesOldestFirst(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	p100 := createTestProduct(t, pool, "Item A", "100.00", 10)
	p50 := createTestProduct(t, pool, "Item B", "50.00", 10)

	older := createCreditSale(t, pool, customerID, p100, 1)
	newer := createCreditSale(t, pool, customerID, p50, 1)
	backdateSale(t, pool, older.ID, 10)

	payments := core.NewPaymentService(pool)
	receipt, err := payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID: customerID,
		Amount:     d("120.00"),
	})
	require.NoError(t, err)
	require.Len(t, receipt.Allocations, 2)

	// The older sale is cleared first; the remainder lands on the newer one.
	assert.Equal(t, older.ID, receipt.Allocations[0].SaleID)
	assert.True(t, receipt.Allocations[0].AmountApplied.Equal(d("100.00")))
	assert.Equal(t, newer.ID, receipt.Allocations[1].SaleID)
	assert.True(t, receipt.Allocations[1].AmountApplied.Equal(d("20.00")))

	var status core.SaleStatus
	var paid, remaining, total string
	err = pool.QueryRow(ctx,
		"SELECT status, paid_amount::text, remaining_debt::text, total_amount::text FROM sales WHERE id = $1",
		older.ID).Scan(&status, &paid, &remaining, &total)
	require.NoError(t, err)
	assert.Equal(t, core.SaleStatusPaid, status)
	assert.Equal(t, "100.00", paid)
	assert.Equal(t, "0.00", remaining)

	err = pool.QueryRow(ctx,
		"SELECT status, paid_amount::text, remaining_debt::text FROM sales WHERE id = $1",
		newer.ID).Scan(&status, &paid, &remaining)
	require.NoError(t, err)
	assert.Equal(t, core.SaleStatusPartial, status)
	assert.Equal(t, "20.00", paid)
	assert.Equal(t, "30.00", remaining)

	assert.Equal(t, "30.00", customerDebt(t, pool, customerID))

	// One distribution row per touched sale, written with the payment.
	var distCount int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM payment_distributions WHERE payment_id = $1",
		receipt.Payment.ID).Scan(&distCount)
	require.NoError(t, err)
	assert.Equal(t, 2, distCount)

	// The books still balance.
	debts := core.NewDebtService(pool)
	mismatch, err := debts.VerifyCustomerDebt(ctx, customerID)
	require.NoError(t, err)
	assert.Nil(t, mismatch)
}

func TestGeneralPayment_RejectsOverpayment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")
	productID := createTestProduct(t, pool, "Item", "150.00", 5)
	createCreditSale(t, pool, customerID, productID, 1)

	payments := core.NewPaymentService(pool)
	_, err := payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID: customerID,
		Amount:     d("200.00"),
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	// Rejection means zero writes: no payment row, debt untouched.
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments").Scan(&count))
	assert.Equal(t, 0, count)
	assert.Equal(t, "150.00", customerDebt(t, pool, customerID))
}

func TestGeneralPayment_RejectsNonPositiveAmount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	customerID := createTestCustomer(t, pool, "Ana Torres")
	payments := core.NewPaymentService(pool)

	for _, amount := range []string{"0", "-10.00"} {
		_, err := payments.ApplyGeneralPayment(context.Background(), core.GeneralPaymentInput{
			CustomerID: customerID,
			Amount:     d(amount),
		})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
	}
}

func TestSimulate_MatchesApplication(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	p1 := createTestProduct(t, pool, "Item A", "75.50", 5)
	p2 := createTestProduct(t, pool, "Item B", "24.50", 5)
	s1 := createCreditSale(t, pool, customerID, p1, 1)
	createCreditSale(t, pool, customerID, p2, 1)
	backdateSale(t, pool, s1.ID, 3)

	payments := core.NewPaymentService(pool)

	preview, err := payments.Simulate(ctx, customerID, d("80.00"))
	require.NoError(t, err)

	// Simulation writes nothing.
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments").Scan(&count))
	assert.Equal(t, 0, count)
	assert.Equal(t, "100.00", customerDebt(t, pool, customerID))

	receipt, err := payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID: customerID,
		Amount:     d("80.00"),
	})
	require.NoError(t, err)

	// The committed distribution matches the preview number for number.
	require.Equal(t, len(preview), len(receipt.Allocations))
	for i := range preview {
		assert.Equal(t, preview[i].SaleID, receipt.Allocations[i].SaleID)
		assert.True(t, preview[i].AmountApplied.Equal(receipt.Allocations[i].AmountApplied))
		assert.True(t, preview[i].NewDebt.Equal(receipt.Allocations[i].NewDebt))
	}
}

func TestDirectPayment_TouchesOnlyTargetSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")
	p1 := createTestProduct(t, pool, "Item A", "100.00", 5)
	p2 := createTestProduct(t, pool, "Item B", "50.00", 5)
	older := createCreditSale(t, pool, customerID, p1, 1)
	newer := createCreditSale(t, pool, customerID, p2, 1)
	backdateSale(t, pool, older.ID, 5)

	payments := core.NewPaymentService(pool)
	payment, err := payments.ApplyDirectPayment(ctx, core.DirectPaymentInput{
		CustomerID: customerID,
		SaleID:     newer.ID,
		Amount:     d("50.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, payment.SaleID)
	assert.Equal(t, newer.ID, *payment.SaleID)

	// The older sale is untouched even though it is older.
	var remaining string
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT remaining_debt::text FROM sales WHERE id = $1", older.ID).Scan(&remaining))
	assert.Equal(t, "100.00", remaining)

	require.NoError(t, pool.QueryRow(ctx,
		"SELECT remaining_debt::text FROM sales WHERE id = $1", newer.ID).Scan(&remaining))
	assert.Equal(t, "0.00", remaining)

	assert.Equal(t, "100.00", customerDebt(t, pool, customerID))

	// Direct payments produce no distribution rows.
	var distCount int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM payment_distributions").Scan(&distCount))
	assert.Equal(t, 0, distCount)
}

func TestDirectPayment_CappedBySaleDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	customerID := createTestCustomer(t, pool, "Ana Torres")
	p1 := createTestProduct(t, pool, "Item A", "50.00", 5)
	createTestProduct(t, pool, "Item B", "100.00", 5)
	sale := createCreditSale(t, pool, customerID, p1, 1)

	payments := core.NewPaymentService(pool)
	_, err := payments.ApplyDirectPayment(context.Background(), core.DirectPaymentInput{
		CustomerID: customerID,
		SaleID:     sale.ID,
		Amount:     d("60.00"),
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "50.00", customerDebt(t, pool, customerID))
}

func TestGeneralPayment_DuplicateIdempotencyKey(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	productID := createTestProduct(t, pool, "Item", "100.00", 5)
	createCreditSale(t, pool, customerID, productID, 1)

	payments := core.NewPaymentService(pool)
	key := uuid.NewString()

	_, err := payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID:     customerID,
		Amount:         d("40.00"),
		IdempotencyKey: key,
	})
	require.NoError(t, err)

	_, err = payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID:     customerID,
		Amount:         d("40.00"),
		IdempotencyKey: key,
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	// The first application stands alone.
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments").Scan(&count))
	assert.Equal(t, 1, count)
	assert.Equal(t, "60.00", customerDebt(t, pool, customerID))
}

func TestGeneralPayment_DriftedDebtWithNoOutstandingSales(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")

	// Corrupt the denormalized balance behind the service's back: debt with
	// no outstanding sale to absorb it.
	_, err := pool.Exec(ctx,
		"UPDATE customers SET current_debt = 50.00 WHERE id = $1", customerID)
	require.NoError(t, err)

	payments := core.NewPaymentService(pool)
	receipt, err := payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID: customerID,
		Amount:     d("30.00"),
	})
	require.NoError(t, err)
	assert.Empty(t, receipt.Allocations)

	// The payment commits and the full amount comes off the balance even
	// though nothing was distributed.
	var paymentCount int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM payments WHERE id = $1", receipt.Payment.ID).Scan(&paymentCount))
	assert.Equal(t, 1, paymentCount)

	var distCount int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM payment_distributions WHERE payment_id = $1", receipt.Payment.ID).Scan(&distCount))
	assert.Equal(t, 0, distCount)

	assert.Equal(t, "20.00", customerDebt(t, pool, customerID))
}
