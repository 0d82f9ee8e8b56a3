package errors

import "errors"

// Sentinel errors for builder validation. All validation happens
// synchronously at the point of use; a caller passing a bad argument gets
// one of these (wrapped with detail) before any window or expression
// object is constructed.
var (
	// ErrInvalidArgument covers negative window lengths, empty column
	// references and unrecognized aggregation strategies.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedUnit is returned for a unit of time outside the fixed
	// enumerated set. The wrapped message always lists the valid units.
	ErrUnsupportedUnit = errors.New("unsupported unit of time")

	// ErrNotFound is returned when a named metric definition does not exist.
	ErrNotFound = errors.New("definition not found")
)

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidArgumentError = "invalid_argument"
	HttpUnsupportedUnitError = "unsupported_unit"
	HttpNotFoundError        = "definition_not_found"
	HttpDuplicateError       = "duplicate_definition"
)

// ErrorResponse is the error response body for plan and catalog errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
