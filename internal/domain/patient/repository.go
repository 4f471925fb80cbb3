package patient

import (
	"context"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// Repository persists patients in insertion order
type Repository interface {
	// Save appends a patient
	Save(ctx context.Context, p *Patient) error
	// FindAll returns patients in insertion order, paged by the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]*Patient, error)
	// Count returns the number of stored patients
	Count(ctx context.Context) (int64, error)
}
