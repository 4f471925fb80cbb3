package models

import (
	"time"

	"github.com/covidtrack/registry/internal/domain/patient"
)

// PatientModel is the persistence model for a patient row. Rows are read back
// in ID order, which is insertion order.
type PatientModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null;index"`
	BirthDate    string    `gorm:"type:char(10);not null"`
	Phone        string    `gorm:"type:varchar(16);not null"`
	DocumentType string    `gorm:"type:varchar(32);not null"`
	DocumentID   string    `gorm:"type:varchar(16);not null;default:''"`
	Status       string    `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PatientModel) TableName() string {
	return "patients"
}

// ToDomain restores the domain patient from the row
func (m *PatientModel) ToDomain() (*patient.Patient, error) {
	return patient.Restore(patient.StoredFields{
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		BirthDate:    m.BirthDate,
		Phone:        m.Phone,
		DocumentType: m.DocumentType,
		DocumentID:   m.DocumentID,
		Status:       m.Status,
	})
}

// FromDomain populates the row from a domain patient
func (m *PatientModel) FromDomain(p *patient.Patient) {
	s := p.ToStored()
	m.FirstName = s.FirstName
	m.LastName = s.LastName
	m.BirthDate = s.BirthDate
	m.Phone = s.Phone
	m.DocumentType = s.DocumentType
	m.DocumentID = s.DocumentID
	m.Status = s.Status
}

// PatientModelFromDomain creates a new row from a domain patient
func PatientModelFromDomain(p *patient.Patient) *PatientModel {
	m := &PatientModel{}
	m.FromDomain(p)
	return m
}

// AllModels lists the models migrated at startup
func AllModels() []any {
	return []any{&PatientModel{}}
}
