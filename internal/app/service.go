package app

import (
	"context"

	"pos-ledger/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateCustomer registers a new customer.
	CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResult, error)

	// UpdateCustomer replaces a customer's contact fields.
	UpdateCustomer(ctx context.Context, customerID int64, req CustomerRequest) (*CustomerResult, error)

	// DeactivateCustomer soft-deletes a customer. Fails while debt is outstanding.
	DeactivateCustomer(ctx context.Context, customerID int64) error

	// GetCustomer returns a single customer.
	GetCustomer(ctx context.Context, customerID int64) (*CustomerResult, error)

	// GetCustomerDetail returns a customer with their full sale and payment history.
	GetCustomerDetail(ctx context.Context, customerID int64) (*core.CustomerDetail, error)

	// ListCustomers returns customers matching the filter, heaviest debt first.
	ListCustomers(ctx context.Context, search string, withDebt bool) (*CustomerListResult, error)

	// CreateProduct adds a product to the catalog.
	CreateProduct(ctx context.Context, req ProductRequest) (*ProductResult, error)

	// UpdateProduct replaces a product's catalog fields. Stock is not touched here.
	UpdateProduct(ctx context.Context, productID int64, req ProductRequest) (*ProductResult, error)

	// DeactivateProduct soft-deletes a product.
	DeactivateProduct(ctx context.Context, productID int64) error

	// GetProduct fetches a single product by id.
	GetProduct(ctx context.Context, productID int64) (*ProductResult, error)

	// ListProducts returns catalog products matching the filter.
	ListProducts(ctx context.Context, search string, categoryID int64, inStock bool) (*ProductListResult, error)

	// CreateCategory adds a product category.
	CreateCategory(ctx context.Context, name, description string) (*core.Category, error)

	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]core.Category, error)

	// CreateSale records a sale with line items, deducting stock and, for
	// credit sales, increasing the customer's debt.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error)

	// DeleteSale removes a sale, restoring stock and reversing its debt.
	DeleteSale(ctx context.Context, saleID int64) error

	// GetSale returns a sale with its items.
	GetSale(ctx context.Context, saleID int64) (*SaleResult, error)

	// ListSales returns sales matching the filter, newest first.
	ListSales(ctx context.Context, req ListSalesRequest) (*SaleListResult, error)

	// RecordPayment applies a payment. With SaleID set it pays that sale only;
	// without, it is distributed across outstanding sales oldest-first.
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error)

	// PreviewPayment simulates the distribution of a general payment without
	// writing anything. Safe to call per keystroke.
	PreviewPayment(ctx context.Context, customerID int64, amount string) (*PreviewResult, error)

	// ListPayments returns a customer's payment history, newest first.
	ListPayments(ctx context.Context, customerID int64) (*PaymentListResult, error)

	// GetPaymentDistributions returns how a general payment was split.
	GetPaymentDistributions(ctx context.Context, paymentID int64) ([]core.PaymentDistribution, error)

	// RestockProduct adds stock and records a purchase movement.
	RestockProduct(ctx context.Context, req RestockRequest) (*core.InventoryMovement, error)

	// AdjustStock sets an absolute stock level and records the delta.
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.InventoryMovement, error)

	// ListMovements returns the stock movement log, newest first.
	ListMovements(ctx context.Context, productID int64, limit int) ([]core.InventoryMovement, error)

	// LowStockProducts returns active products at or below their alert level.
	LowStockProducts(ctx context.Context) (*ProductListResult, error)

	// GetDashboard returns the landing-page aggregates.
	GetDashboard(ctx context.Context) (*core.DashboardStats, error)

	// GetSalesSeries returns per-day sale totals over the trailing window.
	GetSalesSeries(ctx context.Context, days int) ([]core.SalesDay, error)

	// GetSalesSummary returns aggregate sale figures for a date range.
	GetSalesSummary(ctx context.Context, from, to string) (*core.SalesSummary, error)

	// GetTopProducts ranks products by revenue over a date range.
	GetTopProducts(ctx context.Context, from, to string, limit int) ([]core.ProductRank, error)

	// GetTopCustomers ranks customers by purchase volume over a date range.
	GetTopCustomers(ctx context.Context, from, to string, limit int) ([]core.CustomerRank, error)

	// ListDebtors returns active customers with outstanding debt.
	ListDebtors(ctx context.Context) (*CustomerListResult, error)

	// VerifyDebts cross-checks every customer's debt against their sales.
	VerifyDebts(ctx context.Context) (*VerifyResult, error)

	// VerifyCustomerDebt cross-checks one customer's debt against their sales.
	VerifyCustomerDebt(ctx context.Context, customerID int64) (*VerifyResult, error)

	// GetUserByUsername finds an active user for login.
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)

	// GetUserByID returns a user by primary key.
	GetUserByID(ctx context.Context, userID int64) (*core.User, error)
}
