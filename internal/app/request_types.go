package app

// CustomerRequest is the input for creating or updating a customer.
type CustomerRequest struct {
	FullName string
	Phone    string
	Email    string
	Address  string
	Notes    string
}

// ProductRequest is the input for creating or updating a product.
// Price is a decimal string ("149.99"); parse failures are validation errors.
type ProductRequest struct {
	Name          string
	Brand         string
	CategoryID    *int64
	Price         string
	StockQuantity int
	MinStockAlert int
}

// CreateSaleRequest is the input for recording a sale.
type CreateSaleRequest struct {
	CustomerID  int64
	Lines       []SaleLineRequest
	PaymentType string // "cash" or "credit"
	Notes       string
	CreatedBy   *int64
}

// SaleLineRequest is a single cart line within a CreateSaleRequest.
type SaleLineRequest struct {
	ProductID int64
	Quantity  int
}

// ListSalesRequest filters ListSales. Empty fields mean "no constraint";
// From and To are "YYYY-MM-DD".
type ListSalesRequest struct {
	CustomerID int64
	Status     string
	From       string
	To         string
	Limit      int
}

// RecordPaymentRequest is the input for applying a payment. SaleID nil means a
// general payment distributed oldest-first; set, a direct payment against that
// sale. Amount is a decimal string.
type RecordPaymentRequest struct {
	CustomerID     int64
	SaleID         *int64
	Amount         string
	Method         string // "cash" or "transfer", defaults to cash
	Notes          string
	CreatedBy      *int64
	IdempotencyKey string
}

// RestockRequest is the input for adding stock.
type RestockRequest struct {
	ProductID int64
	Quantity  int
	Reason    string
	CreatedBy *int64
}

// AdjustStockRequest sets an absolute stock level.
type AdjustStockRequest struct {
	ProductID   int64
	NewQuantity int
	Reason      string
	CreatedBy   *int64
}
