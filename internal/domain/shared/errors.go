package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, ErrInvalidFormat) matches any field's format error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewFieldError creates a domain error bound to a record field
func NewFieldError(code, field, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// Error codes
const (
	CodeInvalidFormat       = "INVALID_FORMAT"
	CodeInvalidLength       = "INVALID_LENGTH"
	CodeInvalidDocumentID   = "INVALID_DOCUMENT_ID"
	CodeInvalidDocumentType = "INVALID_DOCUMENT_TYPE"
	CodeTypoNotRecognized   = "TYPO_NOT_RECOGNIZED"
	CodeTypeMismatch        = "TYPE_MISMATCH"
	CodeInvalidStatus       = "INVALID_STATUS"
)

// Common domain errors
var (
	ErrInvalidFormat       = NewDomainError(CodeInvalidFormat, "Value has an invalid format")
	ErrInvalidLength       = NewDomainError(CodeInvalidLength, "Value has an invalid number of digits")
	ErrInvalidDocumentID   = NewDomainError(CodeInvalidDocumentID, "Document number does not match the document type")
	ErrInvalidDocumentType = NewDomainError(CodeInvalidDocumentType, "Document type is not recognized")
	ErrTypoNotRecognized   = NewDomainError(CodeTypoNotRecognized, "Change does not look like a typo correction")
	ErrTypeMismatch        = NewDomainError(CodeTypeMismatch, "Value has an unsupported type")
	ErrInvalidStatus       = NewDomainError(CodeInvalidStatus, "Unknown patient status")
)
