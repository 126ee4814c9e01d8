package core_test

import (
	"context"
	"testing"

	"pos-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestock_AddsStockWithMovement(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := createTestProduct(t, pool, "Item", "5.00", 8)
	inventory := core.NewInventoryService(pool)

	movement, err := inventory.Restock(ctx, core.RestockInput{
		ProductID: productID,
		Quantity:  12,
		Reason:    "weekly delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, core.MovementPurchase, movement.MovementType)
	assert.Equal(t, 12, movement.Quantity)
	assert.Equal(t, 8, movement.PreviousStock)
	assert.Equal(t, 20, movement.NewStock)
	assert.Equal(t, 20, productStock(t, pool, productID))
}

func TestRestock_RejectsNonPositiveQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	productID := createTestProduct(t, pool, "Item", "5.00", 8)
	inventory := core.NewInventoryService(pool)

	_, err := inventory.Restock(context.Background(), core.RestockInput{
		ProductID: productID,
		Quantity:  0,
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, 8, productStock(t, pool, productID))
}

func TestAdjustStock_RecordsSignedDelta(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	productID := createTestProduct(t, pool, "Item", "5.00", 10)
	inventory := core.NewInventoryService(pool)

	movement, err := inventory.AdjustStock(ctx, core.AdjustStockInput{
		ProductID:   productID,
		NewQuantity: 6,
		Reason:      "shrinkage count",
	})
	require.NoError(t, err)

	assert.Equal(t, core.MovementAdjustment, movement.MovementType)
	assert.Equal(t, -4, movement.Quantity)
	assert.Equal(t, 10, movement.PreviousStock)
	assert.Equal(t, 6, movement.NewStock)
	assert.Equal(t, 6, productStock(t, pool, productID))
}

func TestLowStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	low := createTestProduct(t, pool, "Low Item", "5.00", 2)
	createTestProduct(t, pool, "Fine Item", "5.00", 50)
	_, err := pool.Exec(ctx,
		"UPDATE products SET min_stock_alert = 5 WHERE id = $1", low)
	require.NoError(t, err)

	products, err := core.NewInventoryService(pool).LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low, products[0].ID)
}
