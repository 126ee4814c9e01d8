package app

import "pos-ledger/internal/core"

// CustomerResult is returned by single-customer operations.
type CustomerResult struct {
	Customer *core.Customer
}

// CustomerListResult is returned by ListCustomers and ListDebtors.
type CustomerListResult struct {
	Customers []core.Customer
}

// ProductResult is returned by single-product operations.
type ProductResult struct {
	Product *core.Product
}

// ProductListResult is returned by ListProducts and LowStockProducts.
type ProductListResult struct {
	Products []core.Product
}

// SaleResult is returned by sale lifecycle operations.
type SaleResult struct {
	Sale *core.Sale
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale
}

// PaymentResult is returned by RecordPayment: the payment row plus, for
// general payments, the per-sale allocations it produced.
type PaymentResult struct {
	Payment     *core.Payment     `json:"payment"`
	Allocations []core.Allocation `json:"allocations,omitempty"`
}

// PreviewResult is returned by PreviewPayment. Allocations show where the
// money would land; nothing is written.
type PreviewResult struct {
	Allocations []core.Allocation `json:"allocations"`
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []core.Payment
}

// VerifyResult is returned by the debt verification operations. Empty
// Mismatches means the ledger balances.
type VerifyResult struct {
	Mismatches []core.DebtMismatch `json:"mismatches"`
}
