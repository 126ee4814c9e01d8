package core_test

import (
	"context"
	"testing"

	"pos-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAllDebts_CleanLedger(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	c1 := createTestCustomer(t, pool, "Maria Lopez")
	c2 := createTestCustomer(t, pool, "Jorge Ramirez")
	productID := createTestProduct(t, pool, "Item", "20.00", 20)
	createCreditSale(t, pool, c1, productID, 2)
	createCreditSale(t, pool, c2, productID, 1)

	mismatches, err := core.NewDebtService(pool).VerifyAllDebts(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestVerifyAllDebts_DetectsDrift(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	customerID := createTestCustomer(t, pool, "Ana Torres")
	productID := createTestProduct(t, pool, "Item", "20.00", 20)
	createCreditSale(t, pool, customerID, productID, 1)

	// Corrupt the denormalized balance behind the service's back.
	_, err := pool.Exec(ctx,
		"UPDATE customers SET current_debt = 35.00 WHERE id = $1", customerID)
	require.NoError(t, err)

	mismatches, err := core.NewDebtService(pool).VerifyAllDebts(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, customerID, mismatches[0].CustomerID)
	assert.True(t, mismatches[0].CurrentDebt.Equal(d("35.00")))
	assert.True(t, mismatches[0].SalesTotal.Equal(d("20.00")))

	// Verification reports; it never repairs.
	assert.Equal(t, "35.00", customerDebt(t, pool, customerID))
}

func TestVerifyCustomerDebt_UnknownCustomer(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	_, err := core.NewDebtService(pool).VerifyCustomerDebt(context.Background(), 99999)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}
