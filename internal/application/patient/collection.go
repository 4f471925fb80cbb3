package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/domain/shared"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

const defaultPageSize = 100

// Recorder receives collection events, typically for metrics
type Recorder interface {
	PatientAdded()
	PatientRejected(code string)
}

type nopRecorder struct{}

func (nopRecorder) PatientAdded()          {}
func (nopRecorder) PatientRejected(string) {}

// Collection is the ordered set of registered patients. It is loaded from the
// repository when created and every added patient is saved before it becomes
// visible.
type Collection struct {
	repo      patient.Repository
	validator *patient.Validator
	logger    *zap.Logger
	recorder  Recorder
	pageSize  int
	charset   encoding.Encoding

	mu       sync.RWMutex
	patients []*patient.Patient
}

// Option configures a Collection
type Option func(*Collection)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithRecorder sets the event recorder
func WithRecorder(r Recorder) Option {
	return func(c *Collection) {
		c.recorder = r
	}
}

// WithPageSize sets how many rows Limit fetches per query
func WithPageSize(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithImportCharset sets the encoding Import falls back to for files that
// are not UTF-8
func WithImportCharset(enc encoding.Encoding) Option {
	return func(c *Collection) {
		c.charset = enc
	}
}

// NewCollection creates a collection and loads every stored patient
func NewCollection(ctx context.Context, repo patient.Repository, v *patient.Validator, opts ...Option) (*Collection, error) {
	c := &Collection{
		repo:      repo,
		validator: v,
		logger:    zap.NewNop(),
		recorder:  nopRecorder{},
		pageSize:  defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory patients with the stored ones
func (c *Collection) Reload(ctx context.Context) error {
	patients, err := c.repo.FindAll(ctx, shared.Unbounded())
	if err != nil {
		c.logger.Error("failed to load patients", zap.Error(err))
		return fmt.Errorf("load patients: %w", err)
	}

	c.mu.Lock()
	c.patients = patients
	c.mu.Unlock()

	c.logger.Debug("patients loaded", zap.Int("count", len(patients)))
	return nil
}

// Add validates raw input, saves the new patient and appends it.
// Nothing is stored when validation fails.
func (c *Collection) Add(ctx context.Context, raw patient.RawFields) (*patient.Patient, error) {
	p, err := patient.New(ctx, c.validator, raw)
	if err != nil {
		c.recorder.PatientRejected(errorCode(err))
		return nil, err
	}
	if err := c.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Collection) save(ctx context.Context, p *patient.Patient) error {
	if err := c.repo.Save(ctx, p); err != nil {
		c.logger.Error("failed to save patient", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.patients = append(c.patients, p)
	c.mu.Unlock()

	c.recorder.PatientAdded()
	c.logger.Info("patient added",
		zap.String("first_name", p.FirstName()),
		zap.String("last_name", p.LastName()),
	)
	return nil
}

// Len returns the number of loaded patients
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patients)
}

// All iterates over the loaded patients in insertion order
func (c *Collection) All() iter.Seq[*patient.Patient] {
	c.mu.RLock()
	snapshot := slices.Clone(c.patients)
	c.mu.RUnlock()
	return slices.Values(snapshot)
}

// Limit lazily reads the first n stored patients in insertion order, one page
// at a time. Each call starts from the beginning. A storage error is yielded
// once and ends the sequence.
func (c *Collection) Limit(ctx context.Context, n int) iter.Seq2[*patient.Patient, error] {
	return func(yield func(*patient.Patient, error) bool) {
		for offset := 0; offset < n; {
			size := min(c.pageSize, n-offset)
			page, err := c.repo.FindAll(ctx, shared.Filter{Offset: offset, Limit: size})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, p := range page {
				if !yield(p, nil) {
					return
				}
			}
			if len(page) < size {
				return
			}
			offset += size
		}
	}
}

// Count returns the number of stored patients
func (c *Collection) Count(ctx context.Context) (int64, error) {
	return c.repo.Count(ctx)
}

// Statistics tallies the loaded patients by status
func (c *Collection) Statistics() patient.Statistics {
	return patient.Tally(c.All())
}

// ImportResult summarises a CSV import
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

const maxImportErrors = 100

// Import adds every valid row of a CSV file. Invalid rows are reported and
// skipped. A storage or lookup failure stops the import; rows added before
// it stay added.
func (c *Collection) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parser, err := csvimport.NewCSVParser(r, csvimport.WithFallbackEncoding(c.charset))
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders(csvimport.RequiredPatientColumns); len(missing) > 0 {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportMissingHeader,
			"missing required columns: "+strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{TotalRows: len(rows)}
	shape := csvimport.NewFieldValidator(csvimport.PatientRules(), maxImportErrors)
	errs := csvimport.NewErrorCollection(maxImportErrors)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !shape.ValidateRow(row) {
			result.ErrorRows++
			continue
		}

		p, err := c.importRow(ctx, row)
		if err != nil {
			var de *shared.DomainError
			if !errors.As(err, &de) {
				return result, fmt.Errorf("import row %d: %w", row.LineNumber, err)
			}
			c.recorder.PatientRejected(de.Code)
			errs.Add(csvimport.RowErrorFromDomain(row.LineNumber, err))
			result.ErrorRows++
			continue
		}
		if err := c.save(ctx, p); err != nil {
			return result, fmt.Errorf("import row %d: %w", row.LineNumber, err)
		}
		result.ImportedRows++
	}

	errs.Merge(shape.Errors())
	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.TotalCount()

	c.logger.Info("import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("rejected", result.ErrorRows),
	)
	return result, nil
}

func (c *Collection) importRow(ctx context.Context, row *csvimport.Row) (*patient.Patient, error) {
	status, err := row.PatientStatus()
	if err != nil {
		return nil, err
	}
	p, err := patient.New(ctx, c.validator, row.PatientRaw())
	if err != nil {
		return nil, err
	}
	switch status {
	case patient.StatusRecovered:
		p.MarkRecovered()
	case patient.StatusDeceased:
		p.MarkDeceased()
	}
	return p, nil
}

// Export writes the loaded patients as CSV in canonical form
func (c *Collection) Export(w io.Writer) error {
	rows := make([]patient.StoredFields, 0, c.Len())
	for p := range c.All() {
		rows = append(rows, p.ToStored())
	}
	return csvimport.WritePatients(w, rows)
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
