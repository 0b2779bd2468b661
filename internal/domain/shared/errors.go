package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies with a more specific
// message still satisfy errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by the labeling and fulfillment contexts
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidState       = "INVALID_STATE"
	CodeDuplicateIntegrity = "DUPLICATE_INTEGRITY"
	CodeIllegalTransition  = "ILLEGAL_TRANSITION"
	CodeLabelInUse         = "LABEL_IN_USE"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeCustomerDisabled   = "CUSTOMER_DISABLED"
	CodeUnexpected         = "UNEXPECTED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrDuplicateIntegrity  = NewDomainError(CodeDuplicateIntegrity, "More than one record shares the same natural key")
	ErrIllegalTransition   = NewDomainError(CodeIllegalTransition, "Status transition not allowed from current status")
	ErrLabelInUse          = NewDomainError(CodeLabelInUse, "Label is used on another open sales order")
	ErrPreconditionFailed  = NewDomainError(CodePreconditionFailed, "Precondition for this operation is not met")
	ErrCustomerDisabled    = NewDomainError(CodeCustomerDisabled, "Customer is disabled")
	ErrUnexpected          = NewDomainError(CodeUnexpected, "Unexpected error")
)

// ErrorCode extracts the domain error code from err, or CodeUnexpected for
// anything that is not a DomainError.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnexpected
}
