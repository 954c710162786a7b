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

// Is reports whether target carries the same error code, so that detailed
// errors built with NewDomainErrorf still match the sentinel values below.
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
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes used by the material flow engine
const (
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeDuplicateMaterial   = "DUPLICATE_MATERIAL"
	CodeMaterialNotFound    = "MATERIAL_NOT_FOUND"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidQuantity     = NewDomainError(CodeInvalidQuantity, "Quantity is not valid")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrDuplicateMaterial   = NewDomainError(CodeDuplicateMaterial, "Material appears more than once")
	ErrMaterialNotFound    = NewDomainError(CodeMaterialNotFound, "Material not found")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrValidationFailed    = NewDomainError(CodeValidationFailed, "Validation failed")
)
