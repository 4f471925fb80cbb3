package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/domain/shared"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
)

// CSVPatientRepository keeps patients in a single CSV file written in the
// export format. A missing file is an error; an empty file holds no patients.
type CSVPatientRepository struct {
	path string
	mu   sync.Mutex
}

// NewCSVPatientRepository creates a repository backed by the file at path
func NewCSVPatientRepository(path string) *CSVPatientRepository {
	return &CSVPatientRepository{path: path}
}

// Path returns the backing file
func (r *CSVPatientRepository) Path() string {
	return r.path
}

// Save appends a patient row, writing the header first if the file is empty
func (r *CSVPatientRepository) Save(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open patient file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat patient file: %w", err)
	}
	if err := csvimport.AppendPatients(f, []patient.StoredFields{p.ToStored()}, info.Size() == 0); err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

// FindAll returns patients in file order
func (r *CSVPatientRepository) FindAll(_ context.Context, filter shared.Filter) ([]*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return nil, err
	}
	if filter.Offset >= len(all) {
		return []*patient.Patient{}, nil
	}
	all = all[filter.Offset:]
	if !filter.IsUnbounded() && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

// Count returns the number of patients in the file
func (r *CSVPatientRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load()
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *CSVPatientRepository) load() ([]*patient.Patient, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patient file: %w", err)
	}
	defer f.Close()

	parser, err := csvimport.NewCSVParser(f)
	if errors.Is(err, csvimport.ErrEmptyFile) {
		return []*patient.Patient{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patient file: %w", err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, fmt.Errorf("failed to read patient file: %w", err)
	}
	if missing := parser.ValidateHeaders(csvimport.PatientColumns); len(missing) > 0 {
		return nil, fmt.Errorf("patient file %s is missing columns: %s", r.path, strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, fmt.Errorf("failed to read patient file: %w", err)
	}

	patients := make([]*patient.Patient, 0, len(rows))
	for _, row := range rows {
		p, err := patient.Restore(row.PatientStored())
		if err != nil {
			return nil, fmt.Errorf("patient file line %d: %w", row.LineNumber, err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

var _ patient.Repository = (*CSVPatientRepository)(nil)
