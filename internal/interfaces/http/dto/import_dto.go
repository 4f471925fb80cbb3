package dto

import (
	apppatient "github.com/covidtrack/registry/internal/application/patient"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
)

// PatientImportResponse represents the response from a patient CSV import
type PatientImportResponse struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// NewPatientImportResponse converts an import result
func NewPatientImportResponse(r *apppatient.ImportResult) PatientImportResponse {
	return PatientImportResponse{
		TotalRows:    r.TotalRows,
		ImportedRows: r.ImportedRows,
		ErrorRows:    r.ErrorRows,
		Errors:       r.Errors,
		IsTruncated:  r.IsTruncated,
		TotalErrors:  r.TotalErrors,
	}
}
