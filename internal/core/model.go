package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPartial SaleStatus = "partial"
	SaleStatusPaid    SaleStatus = "paid"
)

type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
)

// Customer is a buyer with a running debt balance. CurrentDebt is denormalized:
// it must always equal the sum of remaining_debt over the customer's sales.
// Customers are never physically deleted; deactivation preserves the sale and
// payment history that references them.
type Customer struct {
	ID          int64           `json:"id"`
	FullName    string          `json:"full_name"`
	Phone       *string         `json:"phone,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Address     *string         `json:"address,omitempty"`
	CurrentDebt decimal.Decimal `json:"current_debt"`
	IsActive    bool            `json:"is_active"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a sellable item. Price is the current list price; sale items
// snapshot it at sale time. Deactivation (not deletion) keeps historical sale
// items resolvable.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Brand         *string         `json:"brand,omitempty"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockAlert int             `json:"min_stock_alert"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Sale is one checkout. The balance invariant holds at all times:
//
//	PaidAmount + RemainingDebt == TotalAmount
//
// Status is derived from RemainingDebt (0 → paid; < total → partial;
// == total → pending). A cash sale is born paid, a credit sale born pending.
type Sale struct {
	ID            int64           `json:"id"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"` // joined from customers
	SaleDate      time.Time       `json:"sale_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	Status        SaleStatus      `json:"status"`
	PaymentType   PaymentType     `json:"payment_type"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     *int64          `json:"created_by,omitempty"`
	Items         []SaleItem      `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleItem is one line of a sale. UnitPrice is the price snapshot taken when
// the sale was created, not a live reference. Immutable once written.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"` // joined from products
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Payment is money received from a customer. SaleID set = direct payment
// against that sale only; SaleID nil = general payment distributed across the
// customer's outstanding sales oldest-first. Immutable once written.
type Payment struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	SaleID        *int64          `json:"sale_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     *int64          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentDistribution records how much of a general payment landed on one
// sale, with the sale's debt before and after. Written only by the allocator,
// atomically with the payment and the sale updates it describes.
type PaymentDistribution struct {
	ID            int64           `json:"id"`
	PaymentID     int64           `json:"payment_id"`
	SaleID        int64           `json:"sale_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	PreviousDebt  decimal.Decimal `json:"previous_debt"`
	NewDebt       decimal.Decimal `json:"new_debt"`
}

// InventoryMovement is one stock change with before/after quantities.
type InventoryMovement struct {
	ID            int64        `json:"id"`
	ProductID     int64        `json:"product_id"`
	ProductName   string       `json:"product_name,omitempty"` // joined from products
	MovementType  MovementType `json:"movement_type"`
	Quantity      int          `json:"quantity"`
	PreviousStock int          `json:"previous_stock"`
	NewStock      int          `json:"new_stock"`
	Reason        *string      `json:"reason,omitempty"`
	CreatedBy     *int64       `json:"created_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
