package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutstandingSale is the slice of a sale the allocator cares about: identity,
// date (the ordering key), and how much is still owed.
type OutstandingSale struct {
	SaleID        int64           `json:"sale_id"`
	SaleDate      time.Time       `json:"sale_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
}

// Allocation is one step of a payment distribution: how much landed on a sale
// and the sale's debt before and after.
type Allocation struct {
	SaleID        int64           `json:"sale_id"`
	SaleDate      time.Time       `json:"sale_date"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	PreviousDebt  decimal.Decimal `json:"previous_debt"`
	NewDebt       decimal.Decimal `json:"new_debt"`
}

// AllocatePayment walks outstanding sales in the order given (callers fetch
// them sale_date ascending, id ascending, so oldest debt is paid down first) and
// greedily applies amount: each sale absorbs min(remaining, its debt) until
// the amount is exhausted. Sales past that point are untouched.
//
// The walk is pure. Both the preview endpoint and the committing allocator
// call this same function, so a preview followed immediately by the real
// payment produces numerically identical distribution rows (absent concurrent
// mutation between the two calls).
func AllocatePayment(amount decimal.Decimal, outstanding []OutstandingSale) []Allocation {
	remaining := amount
	var allocations []Allocation

	for _, sale := range outstanding {
		if !remaining.IsPositive() {
			break
		}

		applied := decimal.Min(remaining, sale.RemainingDebt)
		allocations = append(allocations, Allocation{
			SaleID:        sale.SaleID,
			SaleDate:      sale.SaleDate,
			AmountApplied: applied,
			PreviousDebt:  sale.RemainingDebt,
			NewDebt:       sale.RemainingDebt.Sub(applied),
		})

		remaining = remaining.Sub(applied)
	}

	return allocations
}

// AllocatedTotal sums amount_applied across allocations. For a payment fully
// covered by outstanding debt this must equal the payment amount exactly.
func AllocatedTotal(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.AmountApplied)
	}
	return total
}

// StatusFor derives a sale's status from its balances: zero debt is paid,
// anything between zero and the full total is partial, the full total still
// owed is pending.
func StatusFor(totalAmount, remainingDebt decimal.Decimal) SaleStatus {
	switch {
	case remainingDebt.IsZero():
		return SaleStatusPaid
	case remainingDebt.LessThan(totalAmount):
		return SaleStatusPartial
	default:
		return SaleStatusPending
	}
}
