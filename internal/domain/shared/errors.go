package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same domain error code.
// This lets callers match sentinels with errors.Is even when the message
// was rewritten with entry-specific details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Stock ledger error kinds. All are raised at voucher submit and abort the
// enclosing transaction.
var (
	ErrNegativeStock          = NewDomainError("NEGATIVE_STOCK", "Stock balance would go below zero")
	ErrFrozenPeriod           = NewDomainError("FROZEN_PERIOD", "Stock transactions in the frozen period are not allowed")
	ErrTemplateHasStock       = NewDomainError("TEMPLATE_HAS_STOCK", "Stock cannot exist for an item template with variants")
	ErrInvalidBatch           = NewDomainError("INVALID_BATCH", "Batch is unknown, expired, or does not belong to the item")
	ErrSerialNoState          = NewDomainError("SERIAL_STATE", "Serial number is not in a valid state for this movement")
	ErrUOMMustBeInteger       = NewDomainError("UOM_WHOLE_NUMBER", "Quantity must be a whole number for this UOM")
	ErrOverDelivery           = NewDomainError("OVER_DELIVERY", "Delivered quantity would exceed the ordered quantity plus allowance")
	ErrOverBilling            = NewDomainError("OVER_BILLING", "Billed amount would exceed the parent amount plus allowance")
	ErrOverReturn             = NewDomainError("OVER_RETURN", "Returned quantity would exceed the outstanding delivered quantity")
	ErrNotConvertible         = NewDomainError("NOT_CONVERTIBLE", "No conversion path exists between the units")
	ErrConflictingConversion  = NewDomainError("CONFLICTING_CONVERSION", "UOM graph produces multiple incompatible conversion factors")
	ErrDependencyResolution   = NewDomainError("DEPENDENCY_RESOLUTION", "Stock ledger dependency does not resolve to exactly one entry")
	ErrRevalueConflict        = NewDomainError("REVALUE_CONFLICT", "Revaluation cannot reconcile past a stock reconciliation")
	ErrInsufficientBatchStock = NewDomainError("INSUFFICIENT_BATCH_STOCK", "Insufficient batch quantity available")
	ErrInsufficientStock      = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)
