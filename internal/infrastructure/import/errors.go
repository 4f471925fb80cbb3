package csvimport

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// Import error codes. Rows rejected by the patient validator keep the
// domain code instead.
const (
	ErrCodeImportMissingHeader   = "ERR_IMPORT_MISSING_HEADER"
	ErrCodeImportRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidLength   = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportValidation      = "ERR_IMPORT_VALIDATION"
	ErrCodeImportDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

// RowError is a rejected cell or row of an imported file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// RowErrorFromDomain converts a validation failure of a row. Domain errors keep
// their code and field; anything else becomes ERR_IMPORT_VALIDATION.
func RowErrorFromDomain(row int, err error) RowError {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return NewRowError(row, de.Field, de.Code, de.Message)
	}
	return NewRowError(row, "", ErrCodeImportValidation, err.Error())
}

// ErrorCollection keeps the first max row errors and counts all of them
type ErrorCollection struct {
	kept  []RowError
	max   int
	total int
}

// NewErrorCollection creates a collection keeping up to max errors, 100 when
// max is not positive
func NewErrorCollection(max int) *ErrorCollection {
	if max <= 0 {
		max = 100
	}
	return &ErrorCollection{max: max}
}

// Add records err, keeping it if there is room
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.kept) < ec.max {
		ec.kept = append(ec.kept, err)
	}
}

// AddRequiredError records a blank mandatory cell
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField, fmt.Sprintf("field '%s' is required", column)))
}

// Merge adds the errors of other, including those it counted but dropped
func (ec *ErrorCollection) Merge(other *ErrorCollection) {
	for _, err := range other.kept {
		ec.Add(err)
	}
	ec.total += other.total - len(other.kept)
}

// Errors returns the kept errors ordered by row. Errors of the same row keep
// the order they were added in.
func (ec *ErrorCollection) Errors() []RowError {
	out := slices.Clone(ec.kept)
	slices.SortStableFunc(out, func(a, b RowError) int { return cmp.Compare(a.Row, b.Row) })
	return out
}

// TotalCount returns the number of errors added, kept or not
func (ec *ErrorCollection) TotalCount() int { return ec.total }

// HasErrors reports whether any error was added
func (ec *ErrorCollection) HasErrors() bool { return ec.total > 0 }

// IsTruncated reports whether some errors were dropped
func (ec *ErrorCollection) IsTruncated() bool { return ec.total > ec.max }
