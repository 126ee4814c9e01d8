package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReportingService is the read-only aggregate side: dashboard numbers, sales
// series, and ranking queries. Everything here is computed in SQL from the
// transactional tables; nothing is cached or denormalized.
type ReportingService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	SalesSeries(ctx context.Context, days int) ([]SalesDay, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductRank, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRank, error)
	Debtors(ctx context.Context) ([]Customer, error)
}

type DashboardStats struct {
	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
	TodaySalesCount int             `json:"today_sales_count"`
	TotalDebt       decimal.Decimal `json:"total_debt"`
	DebtorCount     int             `json:"debtor_count"`
	LowStockCount   int             `json:"low_stock_count"`
	ActiveCustomers int             `json:"active_customers"`
}

// SalesDay is one day of the sales series.
type SalesDay struct {
	Day     time.Time       `json:"day"`
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
	Count   int             `json:"count"`
}

type SalesSummary struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	SalesTotal  decimal.Decimal `json:"sales_total"`
	SalesCount  int             `json:"sales_count"`
	PaidTotal   decimal.Decimal `json:"paid_total"`
	DebtCreated decimal.Decimal `json:"debt_created"`
	CashTotal   decimal.Decimal `json:"cash_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

type ProductRank struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type CustomerRank struct {
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	SalesCount   int             `json:"sales_count"`
	SalesTotal   decimal.Decimal `json:"sales_total"`
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(total_amount) FROM sales WHERE sale_date::date = CURRENT_DATE), 0),
			(SELECT COUNT(*) FROM sales WHERE sale_date::date = CURRENT_DATE),
			COALESCE((SELECT SUM(current_debt) FROM customers WHERE is_active = true), 0),
			(SELECT COUNT(*) FROM customers WHERE is_active = true AND current_debt > 0),
			(SELECT COUNT(*) FROM products WHERE is_active = true AND stock_quantity <= min_stock_alert),
			(SELECT COUNT(*) FROM customers WHERE is_active = true)
	`).Scan(&stats.TodaySalesTotal, &stats.TodaySalesCount, &stats.TotalDebt,
		&stats.DebtorCount, &stats.LowStockCount, &stats.ActiveCustomers)
	if err != nil {
		return nil, &StorageError{Op: "query dashboard stats", Err: err}
	}
	return &stats, nil
}

// SalesSeries returns one row per calendar day over the trailing window,
// including days with no sales.
func (s *reportingService) SalesSeries(ctx context.Context, days int) ([]SalesDay, error) {
	if days <= 0 {
		days = 7
	}

	rows, err := s.pool.Query(ctx, `
		SELECT d.day,
		       COALESCE(SUM(s.total_amount), 0),
		       COALESCE(SUM(s.paid_amount), 0),
		       COALESCE(SUM(s.remaining_debt), 0),
		       COUNT(s.id)
		FROM generate_series(CURRENT_DATE - ($1::int - 1), CURRENT_DATE, '1 day') AS d(day)
		LEFT JOIN sales s ON s.sale_date::date = d.day
		GROUP BY d.day
		ORDER BY d.day
	`, days)
	if err != nil {
		return nil, &StorageError{Op: "query sales series", Err: err}
	}
	defer rows.Close()

	var series []SalesDay
	for rows.Next() {
		var day SalesDay
		if err := rows.Scan(&day.Day, &day.Total, &day.Paid, &day.Pending, &day.Count); err != nil {
			return nil, &StorageError{Op: "scan sales day", Err: err}
		}
		series = append(series, day)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read sales series", Err: err}
	}
	return series, nil
}

func (s *reportingService) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	summary := &SalesSummary{From: from, To: to}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0),
		       COUNT(*),
		       COALESCE(SUM(paid_amount), 0),
		       COALESCE(SUM(remaining_debt), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_type = 'cash'), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_type = 'credit'), 0)
		FROM sales
		WHERE sale_date >= $1 AND sale_date <= $2
	`, from, to).Scan(&summary.SalesTotal, &summary.SalesCount, &summary.PaidTotal,
		&summary.DebtCreated, &summary.CashTotal, &summary.CreditTotal)
	if err != nil {
		return nil, &StorageError{Op: "query sales summary", Err: err}
	}
	return summary, nil
}

func (s *reportingService) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductRank, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, SUM(si.quantity), SUM(si.subtotal)
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		JOIN sales s ON s.id = si.sale_id
		WHERE s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY p.id, p.name
		ORDER BY SUM(si.subtotal) DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, &StorageError{Op: "query top products", Err: err}
	}
	defer rows.Close()

	var ranks []ProductRank
	for rows.Next() {
		var r ProductRank
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.QuantitySold, &r.Revenue); err != nil {
			return nil, &StorageError{Op: "scan product rank", Err: err}
		}
		ranks = append(ranks, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "rank products", Err: err}
	}
	return ranks, nil
}

func (s *reportingService) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]CustomerRank, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.full_name, COUNT(s.id), SUM(s.total_amount)
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY c.id, c.full_name
		ORDER BY SUM(s.total_amount) DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, &StorageError{Op: "query top customers", Err: err}
	}
	defer rows.Close()

	var ranks []CustomerRank
	for rows.Next() {
		var r CustomerRank
		if err := rows.Scan(&r.CustomerID, &r.CustomerName, &r.SalesCount, &r.SalesTotal); err != nil {
			return nil, &StorageError{Op: "scan customer rank", Err: err}
		}
		ranks = append(ranks, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "rank customers", Err: err}
	}
	return ranks, nil
}

// Debtors lists active customers with outstanding debt, heaviest first.
func (s *reportingService) Debtors(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE is_active = true AND current_debt > 0 ORDER BY current_debt DESC, full_name")
	if err != nil {
		return nil, &StorageError{Op: "query debtors", Err: err}
	}
	defer rows.Close()

	var debtors []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan customer", Err: err}
		}
		debtors = append(debtors, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list debtors", Err: err}
	}
	return debtors, nil
}
