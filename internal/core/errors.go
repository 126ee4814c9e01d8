package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the three failure classes every mutating operation can
// hit. Use errors.Is to classify; the structured types below carry detail and
// unwrap to these.
var (
	// ErrValidation marks caller input that violates a precondition
	// (non-positive amount, amount exceeding debt, empty sale). Surfaced to
	// the user verbatim; never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced sale, customer, product, or payment that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks an underlying database failure after validation
	// passed. The enclosing transaction has been rolled back; nothing partial
	// is visible. Not retried automatically: replaying a payment without its
	// idempotency key is unsafe.
	ErrStorage = errors.New("storage failure")
)

// ValidationError carries the user-facing reason a precondition failed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing entity by kind and id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StorageError wraps a database failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// DebtMismatch describes a divergence between a customer's denormalized
// current_debt and the freshly summed remaining_debt of their sales. It is
// reported by the debt verifier and logged by mutating paths that detect it;
// it is never silently repaired.
type DebtMismatch struct {
	CustomerID  int64           `json:"customer_id"`
	CurrentDebt decimal.Decimal `json:"current_debt"`
	SalesTotal  decimal.Decimal `json:"sales_total"`
}

func (m DebtMismatch) String() string {
	return fmt.Sprintf("customer %d: current_debt %s != sales total %s",
		m.CustomerID, m.CurrentDebt.StringFixed(2), m.SalesTotal.StringFixed(2))
}

// IsValidation reports whether err is a precondition failure the caller can fix.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
