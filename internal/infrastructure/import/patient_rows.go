package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/domain/shared"
)

// Patient CSV columns. Status is optional on import.
const (
	ColumnFirstName    = "first_name"
	ColumnLastName     = "last_name"
	ColumnBirthDate    = "birth_date"
	ColumnPhone        = "phone"
	ColumnDocumentType = "document_type"
	ColumnDocumentID   = "document_id"
	ColumnStatus       = "status"
)

// PatientColumns lists the columns in file order
var PatientColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnBirthDate,
	ColumnPhone,
	ColumnDocumentType,
	ColumnDocumentID,
	ColumnStatus,
}

// RequiredPatientColumns must be present in every imported file
var RequiredPatientColumns = PatientColumns[:6]

// PatientRules returns the shape rules checked before a row reaches the
// validation pipeline
func PatientRules() []FieldRule {
	return []FieldRule{
		Field(ColumnFirstName).Required().MaxLength(100).Build(),
		Field(ColumnLastName).Required().MaxLength(100).Build(),
		Field(ColumnBirthDate).Required().MaxLength(32).Build(),
		Field(ColumnPhone).Required().MaxLength(32).Build(),
		Field(ColumnDocumentType).Required().MaxLength(100).Build(),
		Field(ColumnDocumentID).Required().MaxLength(32).Unique().Build(),
	}
}

// PatientRaw maps an import row to raw patient input
func (r *Row) PatientRaw() patient.RawFields {
	return patient.RawFields{
		FirstName:    r.Get(ColumnFirstName),
		LastName:     r.Get(ColumnLastName),
		BirthDate:    r.Get(ColumnBirthDate),
		Phone:        r.Get(ColumnPhone),
		DocumentType: r.Get(ColumnDocumentType),
		DocumentID:   r.Get(ColumnDocumentID),
	}
}

// PatientStatus returns the status of an import row; an empty cell means infected.
func (r *Row) PatientStatus() (patient.Status, error) {
	label := r.Get(ColumnStatus)
	if label == "" {
		return patient.StatusInfected, nil
	}
	status, err := patient.ParseStatusLabel(label)
	if err != nil {
		return "", shared.NewFieldError(shared.CodeInvalidStatus, ColumnStatus, err.Error())
	}
	return status, nil
}

// PatientStored maps a row of a file written by WritePatients back to a
// storage row
func (r *Row) PatientStored() patient.StoredFields {
	return patient.StoredFields{
		FirstName:    r.Get(ColumnFirstName),
		LastName:     r.Get(ColumnLastName),
		BirthDate:    r.Get(ColumnBirthDate),
		Phone:        r.Get(ColumnPhone),
		DocumentType: r.Get(ColumnDocumentType),
		DocumentID:   r.Get(ColumnDocumentID),
		Status:       r.Get(ColumnStatus),
	}
}

// WritePatients writes a header and one row per patient in canonical form
func WritePatients(w io.Writer, rows []patient.StoredFields) error {
	return AppendPatients(w, rows, true)
}

// AppendPatients writes patients in canonical form, preceded by the header
// when withHeader is set
func AppendPatients(w io.Writer, rows []patient.StoredFields, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(PatientColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, s := range rows {
		record := []string{s.FirstName, s.LastName, s.BirthDate, s.Phone, s.DocumentType, s.DocumentID, s.Status}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write patient %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
