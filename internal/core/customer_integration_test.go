package core_test

import (
	"context"
	"testing"

	"pos-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customers := core.NewCustomerService(pool)

	created, err := customers.CreateCustomer(ctx, core.CustomerInput{
		FullName: "Maria Lopez",
		Phone:    "555-0101",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.True(t, created.CurrentDebt.IsZero())

	updated, err := customers.UpdateCustomer(ctx, created.ID, core.CustomerInput{
		FullName: "Maria Lopez de Garcia",
		Phone:    "555-0101",
		Email:    "maria@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez de Garcia", updated.FullName)
	require.NotNil(t, updated.Email)

	require.NoError(t, customers.DeactivateCustomer(ctx, created.ID))

	// Deactivated customers drop out of the default listing.
	list, err := customers.ListCustomers(ctx, core.CustomerFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeactivateCustomer_RefusedWithDebt(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Jorge Ramirez")
	productID := createTestProduct(t, pool, "Item", "30.00", 5)
	createCreditSale(t, pool, customerID, productID, 1)

	customers := core.NewCustomerService(pool)
	err := customers.DeactivateCustomer(ctx, customerID)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	c, err := customers.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, c.IsActive)
}

func TestListCustomers_DebtOrdering(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	light := createTestCustomer(t, pool, "Ana Torres")
	heavy := createTestCustomer(t, pool, "Jorge Ramirez")
	p30 := createTestProduct(t, pool, "Item A", "30.00", 10)
	p90 := createTestProduct(t, pool, "Item B", "90.00", 10)
	createCreditSale(t, pool, light, p30, 1)
	createCreditSale(t, pool, heavy, p90, 1)

	customers := core.NewCustomerService(pool)
	list, err := customers.ListCustomers(ctx, core.CustomerFilter{WithDebt: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, heavy, list[0].ID)
	assert.Equal(t, light, list[1].ID)
}

func TestGetCustomerDetail_Totals(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Maria Lopez")
	productID := createTestProduct(t, pool, "Item", "50.00", 10)
	createCreditSale(t, pool, customerID, productID, 2)

	_, err := core.NewPaymentService(pool).ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID: customerID,
		Amount:     d("30.00"),
	})
	require.NoError(t, err)

	detail, err := core.NewCustomerService(pool).GetCustomerDetail(ctx, customerID)
	require.NoError(t, err)

	assert.Len(t, detail.Sales, 1)
	assert.Len(t, detail.Payments, 1)
	assert.True(t, detail.TotalSales.Equal(d("100.00")))
	assert.True(t, detail.TotalPaid.Equal(d("30.00")))
	assert.True(t, detail.Customer.CurrentDebt.Equal(d("70.00")))
}
