package core_test

import (
	"testing"
	"time"

	"pos-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func outstanding(id int64, day int, remaining, total string) core.OutstandingSale {
	return core.OutstandingSale{
		SaleID:        id,
		SaleDate:      time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		TotalAmount:   d(total),
		RemainingDebt: d(remaining),
	}
}

func TestAllocatePayment_OldestFirst(t *testing.T) {
	// Two credit sales of 100 and 50; a payment of 120 must clear the older
	// sale entirely and put the remaining 20 on the newer one.
	sales := []core.OutstandingSale{
		outstanding(1, 1, "100.00", "100.00"),
		outstanding(2, 15, "50.00", "50.00"),
	}

	allocations := core.AllocatePayment(d("120.00"), sales)
	require.Len(t, allocations, 2)

	assert.Equal(t, int64(1), allocations[0].SaleID)
	assert.True(t, allocations[0].AmountApplied.Equal(d("100.00")))
	assert.True(t, allocations[0].NewDebt.IsZero())

	assert.Equal(t, int64(2), allocations[1].SaleID)
	assert.True(t, allocations[1].AmountApplied.Equal(d("20.00")))
	assert.True(t, allocations[1].NewDebt.Equal(d("30.00")))
}

func TestAllocatePayment_Conservation(t *testing.T) {
	sales := []core.OutstandingSale{
		outstanding(1, 2, "33.40", "40.00"),
		outstanding(2, 5, "12.05", "12.05"),
		outstanding(3, 9, "78.99", "100.00"),
	}

	amount := d("95.01")
	allocations := core.AllocatePayment(amount, sales)

	total := core.AllocatedTotal(allocations)
	assert.True(t, total.Equal(amount), "allocated %s, paid %s", total, amount)

	for _, a := range allocations {
		assert.True(t, a.PreviousDebt.Sub(a.AmountApplied).Equal(a.NewDebt))
		assert.False(t, a.NewDebt.IsNegative())
	}
}

func TestAllocatePayment_ExactCoverage(t *testing.T) {
	// Payment equal to the total debt clears every sale with nothing left over.
	sales := []core.OutstandingSale{
		outstanding(1, 1, "60.00", "60.00"),
		outstanding(2, 3, "40.00", "80.00"),
	}

	allocations := core.AllocatePayment(d("100.00"), sales)
	require.Len(t, allocations, 2)
	for _, a := range allocations {
		assert.True(t, a.NewDebt.IsZero())
	}
	assert.True(t, core.AllocatedTotal(allocations).Equal(d("100.00")))
}

func TestAllocatePayment_StopsWhenExhausted(t *testing.T) {
	// A small payment touches only the oldest sale; later sales get no rows.
	sales := []core.OutstandingSale{
		outstanding(1, 1, "80.00", "80.00"),
		outstanding(2, 2, "20.00", "20.00"),
	}

	allocations := core.AllocatePayment(d("15.50"), sales)
	require.Len(t, allocations, 1)
	assert.Equal(t, int64(1), allocations[0].SaleID)
	assert.True(t, allocations[0].AmountApplied.Equal(d("15.50")))
	assert.True(t, allocations[0].NewDebt.Equal(d("64.50")))
}

func TestAllocatePayment_NonPositiveAmount(t *testing.T) {
	sales := []core.OutstandingSale{outstanding(1, 1, "10.00", "10.00")}

	assert.Empty(t, core.AllocatePayment(decimal.Zero, sales))
	assert.Empty(t, core.AllocatePayment(d("-5.00"), sales))
}

func TestAllocatePayment_NoOutstandingSales(t *testing.T) {
	assert.Empty(t, core.AllocatePayment(d("50.00"), nil))
}

func TestAllocatePayment_CentPrecision(t *testing.T) {
	// Cent amounts distribute without drift.
	sales := []core.OutstandingSale{
		outstanding(1, 1, "0.03", "0.03"),
		outstanding(2, 2, "0.03", "0.03"),
	}

	allocations := core.AllocatePayment(d("0.05"), sales)
	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].AmountApplied.Equal(d("0.03")))
	assert.True(t, allocations[1].AmountApplied.Equal(d("0.02")))
	assert.True(t, allocations[1].NewDebt.Equal(d("0.01")))
}

func TestStatusFor(t *testing.T) {
	total := d("100.00")

	assert.Equal(t, core.SaleStatusPaid, core.StatusFor(total, decimal.Zero))
	assert.Equal(t, core.SaleStatusPartial, core.StatusFor(total, d("40.00")))
	assert.Equal(t, core.SaleStatusPending, core.StatusFor(total, total))
}
