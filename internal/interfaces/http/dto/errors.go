package dto

import (
	"net/http"

	"github.com/erp/labtrack/internal/domain/shared"
)

// Error codes returned in the response envelope.
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeUnexpected = "ERR_UNEXPECTED"
)

// Validation error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource and workflow error codes
const (
	ErrCodeNotFound             = "ERR_NOT_FOUND"
	ErrCodeDuplicateIntegrity   = "ERR_DUPLICATE_INTEGRITY"
	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeIllegalTransition    = "ERR_ILLEGAL_TRANSITION"
	ErrCodeLabelInUse           = "ERR_LABEL_IN_USE"
	ErrCodePreconditionFailed   = "ERR_PRECONDITION_FAILED"
	ErrCodeCustomerDisabled     = "ERR_CUSTOMER_DISABLED"
	ErrCodeSweepAlreadyRunning  = "ERR_SWEEP_ALREADY_RUNNING"
	ErrCodeServiceNotConfigured = "ERR_SERVICE_NOT_CONFIGURED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeUnexpected: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,

	// data problems an operator has to fix
	ErrCodeDuplicateIntegrity:  http.StatusConflict,
	ErrCodeLabelInUse:          http.StatusConflict,
	ErrCodeSweepAlreadyRunning: http.StatusConflict,

	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeIllegalTransition:  http.StatusUnprocessableEntity,
	ErrCodePreconditionFailed: http.StatusUnprocessableEntity,
	ErrCodeCustomerDisabled:   http.StatusUnprocessableEntity,

	ErrCodeServiceNotConfigured: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:           ErrCodeNotFound,
	shared.CodeInvalidInput:       ErrCodeInvalidInput,
	shared.CodeInvalidState:       ErrCodeInvalidState,
	shared.CodeDuplicateIntegrity: ErrCodeDuplicateIntegrity,
	shared.CodeIllegalTransition:  ErrCodeIllegalTransition,
	shared.CodeLabelInUse:         ErrCodeLabelInUse,
	shared.CodePreconditionFailed: ErrCodePreconditionFailed,
	shared.CodeCustomerDisabled:   ErrCodeCustomerDisabled,
	shared.CodeUnexpected:         ErrCodeUnexpected,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in API format and unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
