package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrConfiguration marks missing GL account setup on a tax, product, third party or mapping.
	ErrConfiguration = errors.New("accounting: configuration missing")
	// ErrInsufficientStock indicates an exit larger than the quantity on hand.
	ErrInsufficientStock = errors.New("accounting: insufficient stock")
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrNotFound indicates a referenced document, account or entry is missing.
	ErrNotFound = errors.New("accounting: not found")
	// ErrValidation indicates a malformed payload or an unsupported operation.
	ErrValidation = errors.New("accounting: validation failed")
)

// ConfigurationError names the entity and the account field that must be configured.
type ConfigurationError struct {
	Entity   string
	EntityID int64
	Field    string
}

func (e *ConfigurationError) Error() string {
	if e.EntityID != 0 {
		return fmt.Sprintf("configure %s on %s %d", e.Field, e.Entity, e.EntityID)
	}
	return fmt.Sprintf("configure %s on %s", e.Field, e.Entity)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// InsufficientStockError reports the requested and available quantity of a product.
type InsufficientStockError struct {
	ProductID int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %s, available %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// UnbalancedEntryError carries the totals of a line set that failed the balance check.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal lines do not balance: debit %s, credit %s",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalanced }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError describes why a payload or request was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Missing builds a ConfigurationError.
func Missing(entity string, id int64, field string) error {
	return &ConfigurationError{Entity: entity, EntityID: id, Field: field}
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
