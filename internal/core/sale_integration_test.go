package core_test

import (
	"context"
	"testing"

	"pos-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productStock(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()
	var stock int
	err := pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestCreateSale_CashBornPaid(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	productID := createTestProduct(t, pool, "Item", "25.00", 10)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 3}},
		PaymentType: core.PaymentTypeCash,
	})
	require.NoError(t, err)

	assert.Equal(t, core.SaleStatusPaid, sale.Status)
	assert.True(t, sale.TotalAmount.Equal(d("75.00")))
	assert.True(t, sale.PaidAmount.Equal(d("75.00")))
	assert.True(t, sale.RemainingDebt.IsZero())

	// Cash sales leave history: an implicit payment row tied to the sale.
	var amount, notes string
	var paymentSaleID int64
	err = pool.QueryRow(ctx,
		"SELECT sale_id, amount::text, notes FROM payments WHERE customer_id = $1",
		customerID).Scan(&paymentSaleID, &amount, &notes)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, paymentSaleID)
	assert.Equal(t, "75.00", amount)
	assert.Equal(t, "cash sale payment", notes)

	// No debt created.
	assert.Equal(t, "0.00", customerDebt(t, pool, customerID))

	// Stock deducted with a sale movement.
	assert.Equal(t, 7, productStock(t, pool, productID))
	var movementType core.MovementType
	var qty int
	err = pool.QueryRow(ctx,
		"SELECT movement_type, quantity FROM inventory_movements WHERE product_id = $1",
		productID).Scan(&movementType, &qty)
	require.NoError(t, err)
	assert.Equal(t, core.MovementSale, movementType)
	assert.Equal(t, -3, qty)
}

func TestCreateSale_CreditIncrementsDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")
	productID := createTestProduct(t, pool, "Item", "40.00", 10)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 2}},
		PaymentType: core.PaymentTypeCredit,
	})
	require.NoError(t, err)

	assert.Equal(t, core.SaleStatusPending, sale.Status)
	assert.True(t, sale.PaidAmount.IsZero())
	assert.True(t, sale.RemainingDebt.Equal(d("80.00")))
	assert.Equal(t, "80.00", customerDebt(t, pool, customerID))

	// No payment rows for a credit sale.
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM payments").Scan(&count))
	assert.Equal(t, 0, count)

	mismatch, err := core.NewDebtService(pool).VerifyCustomerDebt(ctx, customerID)
	require.NoError(t, err)
	assert.Nil(t, mismatch)
}

func TestCreateSale_PriceSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Ana Torres")
	productID := createTestProduct(t, pool, "Item", "10.00", 10)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 1}},
		PaymentType: core.PaymentTypeCredit,
	})
	require.NoError(t, err)

	// A later price change must not alter the recorded sale.
	_, err = pool.Exec(ctx, "UPDATE products SET price = 99.99 WHERE id = $1", productID)
	require.NoError(t, err)

	reloaded, err := sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, reloaded.Items[0].UnitPrice.Equal(d("10.00")))
	assert.True(t, reloaded.TotalAmount.Equal(d("10.00")))
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	productID := createTestProduct(t, pool, "Item", "5.00", 2)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 3}},
		PaymentType: core.PaymentTypeCash,
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	// Nothing written.
	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&count))
	assert.Equal(t, 0, count)
	assert.Equal(t, 2, productStock(t, pool, productID))
}

func TestCreateSale_Validation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")
	productID := createTestProduct(t, pool, "Item", "5.00", 10)
	sales := core.NewSaleService(pool, core.NewInventoryService(pool))

	cases := []struct {
		name  string
		input core.CreateSaleInput
	}{
		{"missing customer", core.CreateSaleInput{
			Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 1}},
			PaymentType: core.PaymentTypeCash,
		}},
		{"no items", core.CreateSaleInput{
			CustomerID:  customerID,
			PaymentType: core.PaymentTypeCash,
		}},
		{"zero quantity", core.CreateSaleInput{
			CustomerID:  customerID,
			Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 0}},
			PaymentType: core.PaymentTypeCash,
		}},
		{"bad payment type", core.CreateSaleInput{
			CustomerID:  customerID,
			Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 1}},
			PaymentType: "installments",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sales.CreateSale(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
		})
	}
}

func TestDeleteSale_RestoresStockAndDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Ana Torres")
	productID := createTestProduct(t, pool, "Item", "30.00", 10)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 4}},
		PaymentType: core.PaymentTypeCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, "120.00", customerDebt(t, pool, customerID))
	assert.Equal(t, 6, productStock(t, pool, productID))

	require.NoError(t, sales.DeleteSale(ctx, sale.ID))

	// Debt reversed, stock back, items cascaded away.
	assert.Equal(t, "0.00", customerDebt(t, pool, customerID))
	assert.Equal(t, 10, productStock(t, pool, productID))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sale_items WHERE sale_id = $1", sale.ID).Scan(&count))
	assert.Equal(t, 0, count)

	// The restoration is logged as an adjustment movement.
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1 AND movement_type = $2",
		productID, core.MovementAdjustment).Scan(&count))
	assert.Equal(t, 1, count)

	mismatch, err := core.NewDebtService(pool).VerifyCustomerDebt(ctx, customerID)
	require.NoError(t, err)
	assert.Nil(t, mismatch)
}

func TestDeleteSale_PartiallyPaid(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	productID := createTestProduct(t, pool, "Item", "100.00", 5)

	sales := core.NewSaleService(pool, core.NewInventoryService(pool))
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  customerID,
		Lines:       []core.SaleLineInput{{ProductID: productID, Quantity: 1}},
		PaymentType: core.PaymentTypeCredit,
	})
	require.NoError(t, err)

	payments := core.NewPaymentService(pool)
	_, err = payments.ApplyDirectPayment(ctx, core.DirectPaymentInput{
		CustomerID: customerID,
		SaleID:     sale.ID,
		Amount:     d("40.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "60.00", customerDebt(t, pool, customerID))

	// Deleting reverses only the unpaid remainder.
	require.NoError(t, sales.DeleteSale(ctx, sale.ID))
	assert.Equal(t, "0.00", customerDebt(t, pool, customerID))

	// The payment survives with its sale reference nulled.
	var saleRef *int64
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT sale_id FROM payments WHERE customer_id = $1", customerID).Scan(&saleRef))
	assert.Nil(t, saleRef)
}
