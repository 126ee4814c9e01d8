package app

import (
	"context"
	"time"

	"pos-ledger/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type appService struct {
	pool      *pgxpool.Pool
	customers core.CustomerService
	products  core.ProductService
	sales     core.SaleService
	payments  core.PaymentService
	inventory core.InventoryService
	reports   core.ReportingService
	debts     core.DebtService
	users     core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	customers core.CustomerService,
	products core.ProductService,
	sales core.SaleService,
	payments core.PaymentService,
	inventory core.InventoryService,
	reports core.ReportingService,
	debts core.DebtService,
	users core.UserService,
) ApplicationService {
	return &appService{
		pool:      pool,
		customers: customers,
		products:  products,
		sales:     sales,
		payments:  payments,
		inventory: inventory,
		reports:   reports,
		debts:     debts,
		users:     users,
	}
}

// parseAmount turns a decimal string into money, mapping garbage to a
// validation error rather than a parse error.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, &core.ValidationError{Reason: field + " is required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Reason: field + " is not a valid amount"}
	}
	return d, nil
}

// parseDateRange interprets "YYYY-MM-DD" bounds; empty strings fall back to
// the trailing 30 days. The upper bound is inclusive of the whole day.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	now := time.Now()
	fromT := now.AddDate(0, 0, -30)
	toT := now
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, &core.ValidationError{Reason: "invalid from date, expected YYYY-MM-DD"}
		}
		fromT = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, &core.ValidationError{Reason: "invalid to date, expected YYYY-MM-DD"}
		}
		toT = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return fromT, toT, nil
}

func (s *appService) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResult, error) {
	c, err := s.customers.CreateCustomer(ctx, core.CustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) UpdateCustomer(ctx context.Context, customerID int64, req CustomerRequest) (*CustomerResult, error) {
	c, err := s.customers.UpdateCustomer(ctx, customerID, core.CustomerInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) DeactivateCustomer(ctx context.Context, customerID int64) error {
	return s.customers.DeactivateCustomer(ctx, customerID)
}

func (s *appService) GetCustomer(ctx context.Context, customerID int64) (*CustomerResult, error) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) GetCustomerDetail(ctx context.Context, customerID int64) (*core.CustomerDetail, error) {
	return s.customers.GetCustomerDetail(ctx, customerID)
}

func (s *appService) ListCustomers(ctx context.Context, search string, withDebt bool) (*CustomerListResult, error) {
	customers, err := s.customers.ListCustomers(ctx, core.CustomerFilter{Search: search, WithDebt: withDebt})
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*ProductResult, error) {
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return nil, err
	}
	p, err := s.products.CreateProduct(ctx, core.ProductInput{
		Name:          req.Name,
		Brand:         req.Brand,
		CategoryID:    req.CategoryID,
		Price:         price,
		StockQuantity: req.StockQuantity,
		MinStockAlert: req.MinStockAlert,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) UpdateProduct(ctx context.Context, productID int64, req ProductRequest) (*ProductResult, error) {
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return nil, err
	}
	p, err := s.products.UpdateProduct(ctx, productID, core.ProductInput{
		Name:          req.Name,
		Brand:         req.Brand,
		CategoryID:    req.CategoryID,
		Price:         price,
		MinStockAlert: req.MinStockAlert,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) DeactivateProduct(ctx context.Context, productID int64) error {
	return s.products.DeactivateProduct(ctx, productID)
}

func (s *appService) GetProduct(ctx context.Context, productID int64) (*ProductResult, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) ListProducts(ctx context.Context, search string, categoryID int64, inStock bool) (*ProductListResult, error) {
	products, err := s.products.ListProducts(ctx, core.ProductFilter{
		Search:     search,
		CategoryID: categoryID,
		InStock:    inStock,
	})
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) CreateCategory(ctx context.Context, name, description string) (*core.Category, error) {
	return s.products.CreateCategory(ctx, name, description)
}

func (s *appService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.products.ListCategories(ctx)
}

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error) {
	lines := make([]core.SaleLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.SaleLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	sale, err := s.sales.CreateSale(ctx, core.CreateSaleInput{
		CustomerID:  req.CustomerID,
		Lines:       lines,
		PaymentType: core.PaymentType(req.PaymentType),
		Notes:       req.Notes,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) DeleteSale(ctx context.Context, saleID int64) error {
	return s.sales.DeleteSale(ctx, saleID)
}

func (s *appService) GetSale(ctx context.Context, saleID int64) (*SaleResult, error) {
	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, req ListSalesRequest) (*SaleListResult, error) {
	filter := core.SaleFilter{
		CustomerID: req.CustomerID,
		Status:     core.SaleStatus(req.Status),
		Limit:      req.Limit,
	}
	if req.From != "" || req.To != "" {
		from, to, err := parseDateRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		filter.From = from
		filter.To = to
	}
	sales, err := s.sales.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	if req.SaleID != nil {
		payment, err := s.payments.ApplyDirectPayment(ctx, core.DirectPaymentInput{
			CustomerID:     req.CustomerID,
			SaleID:         *req.SaleID,
			Amount:         amount,
			Method:         core.PaymentMethod(req.Method),
			Notes:          req.Notes,
			CreatedBy:      req.CreatedBy,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}
		return &PaymentResult{Payment: payment}, nil
	}

	receipt, err := s.payments.ApplyGeneralPayment(ctx, core.GeneralPaymentInput{
		CustomerID:     req.CustomerID,
		Amount:         amount,
		Method:         core.PaymentMethod(req.Method),
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: &receipt.Payment, Allocations: receipt.Allocations}, nil
}

func (s *appService) PreviewPayment(ctx context.Context, customerID int64, amount string) (*PreviewResult, error) {
	d, err := parseAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	allocations, err := s.payments.Simulate(ctx, customerID, d)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{Allocations: allocations}, nil
}

func (s *appService) ListPayments(ctx context.Context, customerID int64) (*PaymentListResult, error) {
	payments, err := s.payments.ListPayments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

func (s *appService) GetPaymentDistributions(ctx context.Context, paymentID int64) ([]core.PaymentDistribution, error) {
	return s.payments.GetDistributions(ctx, paymentID)
}

func (s *appService) RestockProduct(ctx context.Context, req RestockRequest) (*core.InventoryMovement, error) {
	return s.inventory.Restock(ctx, core.RestockInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	})
}

func (s *appService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*core.InventoryMovement, error) {
	return s.inventory.AdjustStock(ctx, core.AdjustStockInput{
		ProductID:   req.ProductID,
		NewQuantity: req.NewQuantity,
		Reason:      req.Reason,
		CreatedBy:   req.CreatedBy,
	})
}

func (s *appService) ListMovements(ctx context.Context, productID int64, limit int) ([]core.InventoryMovement, error) {
	return s.inventory.ListMovements(ctx, core.MovementFilter{ProductID: productID, Limit: limit})
}

func (s *appService) LowStockProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.inventory.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) GetDashboard(ctx context.Context) (*core.DashboardStats, error) {
	return s.reports.DashboardStats(ctx)
}

func (s *appService) GetSalesSeries(ctx context.Context, days int) ([]core.SalesDay, error) {
	return s.reports.SalesSeries(ctx, days)
}

func (s *appService) GetSalesSummary(ctx context.Context, from, to string) (*core.SalesSummary, error) {
	fromT, toT, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reports.SalesSummary(ctx, fromT, toT)
}

func (s *appService) GetTopProducts(ctx context.Context, from, to string, limit int) ([]core.ProductRank, error) {
	fromT, toT, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reports.TopProducts(ctx, fromT, toT, limit)
}

func (s *appService) GetTopCustomers(ctx context.Context, from, to string, limit int) ([]core.CustomerRank, error) {
	fromT, toT, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.reports.TopCustomers(ctx, fromT, toT, limit)
}

func (s *appService) ListDebtors(ctx context.Context) (*CustomerListResult, error) {
	debtors, err := s.reports.Debtors(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: debtors}, nil
}

func (s *appService) VerifyDebts(ctx context.Context) (*VerifyResult, error) {
	mismatches, err := s.debts.VerifyAllDebts(ctx)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Mismatches: mismatches}, nil
}

func (s *appService) VerifyCustomerDebt(ctx context.Context, customerID int64) (*VerifyResult, error) {
	mismatch, err := s.debts.VerifyCustomerDebt(ctx, customerID)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{}
	if mismatch != nil {
		result.Mismatches = append(result.Mismatches, *mismatch)
	}
	return result, nil
}

func (s *appService) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *appService) GetUserByID(ctx context.Context, userID int64) (*core.User, error) {
	return s.users.GetByID(ctx, userID)
}
