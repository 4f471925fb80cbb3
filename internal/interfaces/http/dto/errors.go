package dto

import (
	"net/http"

	"github.com/covidtrack/registry/internal/domain/shared"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
)

// Transport error codes. Domain errors keep their own codes.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:        http.StatusNotFound,

	// Field validation and typo-guard failures -> 422
	shared.CodeInvalidFormat:       http.StatusUnprocessableEntity,
	shared.CodeInvalidLength:       http.StatusUnprocessableEntity,
	shared.CodeInvalidDocumentID:   http.StatusUnprocessableEntity,
	shared.CodeInvalidDocumentType: http.StatusUnprocessableEntity,
	shared.CodeTypoNotRecognized:   http.StatusUnprocessableEntity,
	shared.CodeTypeMismatch:        http.StatusUnprocessableEntity,
	shared.CodeInvalidStatus:       http.StatusUnprocessableEntity,

	csvimport.ErrCodeImportMissingHeader: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
