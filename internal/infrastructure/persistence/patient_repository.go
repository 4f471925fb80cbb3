package persistence

import (
	"context"
	"fmt"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/domain/shared"
	"github.com/covidtrack/registry/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPatientRepository implements patient.Repository using GORM
type GormPatientRepository struct {
	db *gorm.DB
}

// NewGormPatientRepository creates a new GormPatientRepository
func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

// Save inserts a patient row
func (r *GormPatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	model := models.PatientModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

// FindAll returns patients in insertion order
func (r *GormPatientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*patient.Patient, error) {
	query := r.db.WithContext(ctx).Model(&models.PatientModel{}).Order("id")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if !filter.IsUnbounded() {
		query = query.Limit(filter.Limit)
	}

	var rows []models.PatientModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}

	patients := make([]*patient.Patient, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("patient row %d: %w", rows[i].ID, err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// Count returns the number of stored patients
func (r *GormPatientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PatientModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

var _ patient.Repository = (*GormPatientRepository)(nil)
