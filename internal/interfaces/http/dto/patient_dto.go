package dto

import (
	"encoding/json"
	"math"

	"github.com/covidtrack/registry/internal/domain/patient"
)

// CreatePatientRequest is the body of POST /patients. Phone may be a string
// or an integer. Fields carry no binding rules: blank or missing values are
// rejected by the patient validator with its own codes.
type CreatePatientRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	BirthDate    string `json:"birth_date"`
	Phone        any    `json:"phone"`
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
}

// ToRaw converts the request into validator input
func (r CreatePatientRequest) ToRaw() patient.RawFields {
	return patient.RawFields{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		BirthDate:    r.BirthDate,
		Phone:        phoneValue(r.Phone),
		DocumentType: r.DocumentType,
		DocumentID:   r.DocumentID,
	}
}

// JSON numbers arrive as float64. Whole numbers become int64 so the phone
// normalizer sees an integer; anything else is passed through and rejected there.
func phoneValue(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return v
}

// ListPatientsRequest holds the query of GET /patients
type ListPatientsRequest struct {
	Limit *int `form:"limit" binding:"omitempty,min=0,max=10000"`
}

// PatientResponse is the JSON form of a patient
type PatientResponse struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	BirthDate     string `json:"birth_date"`
	Phone         string `json:"phone"`
	DocumentType  string `json:"document_type"`
	DocumentLabel string `json:"document_label"`
	DocumentID    string `json:"document_id,omitempty"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	Display       string `json:"display"`
}

// NewPatientResponse converts a patient
func NewPatientResponse(p *patient.Patient) PatientResponse {
	doc := p.Document()
	return PatientResponse{
		FirstName:     p.FirstName(),
		LastName:      p.LastName(),
		BirthDate:     p.BirthDate(),
		Phone:         p.Phone(),
		DocumentType:  string(doc.Kind()),
		DocumentLabel: doc.Kind().Label(),
		DocumentID:    doc.ID(),
		Status:        string(p.Status()),
		StatusLabel:   p.Status().Label(),
		Display:       p.String(),
	}
}

// CountResponse is the body of GET /patients/count
type CountResponse struct {
	Count int64 `json:"count"`
}

// StatusShare is one status row of the statistics
type StatusShare struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

// StatisticsResponse is the body of GET /statistics
type StatisticsResponse struct {
	Total    int           `json:"total"`
	Statuses []StatusShare `json:"statuses"`
	Chart    string        `json:"chart"`
}

// NewStatisticsResponse converts a status tally
func NewStatisticsResponse(s patient.Statistics) StatisticsResponse {
	resp := StatisticsResponse{
		Total:    s.Total(),
		Statuses: make([]StatusShare, 0, len(patient.Statuses)),
		Chart:    s.Chart(),
	}
	for _, status := range patient.Statuses {
		resp.Statuses = append(resp.Statuses, StatusShare{
			Status:  string(status),
			Label:   status.Label(),
			Count:   s.Count(status),
			Percent: s.Percent(status).StringFixed(1),
		})
	}
	return resp
}
