package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/covidtrack/registry/internal/domain/shared"
	"go.uber.org/zap"
)

// Field names used in errors and logs
const (
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldBirthDate    = "birth_date"
	FieldPhone        = "phone"
	FieldDocumentType = "document_type"
	FieldDocumentID   = "document_id"
	FieldStatus       = "status"
)

// RawFields is unvalidated patient input. Phone may be a string or an integer.
type RawFields struct {
	FirstName    string
	LastName     string
	BirthDate    string
	Phone        any
	DocumentType string
	DocumentID   string
}

// Fields holds the canonical values of a validated patient.
type Fields struct {
	FirstName string
	LastName  string
	BirthDate string
	Phone     string
	Document  Document
}

// Validator runs the field normalizers, the document classifier and the
// advisory name lookups. It also carries the TypoPolicy used by Patient setters.
type Validator struct {
	names    NameRegistry
	surnames SurnameRegistry
	policy   TypoPolicy
	logger   *zap.Logger
}

// ValidatorOption configures a Validator
type ValidatorOption func(*Validator)

// WithLogger sets the logger; warnings about unknown names and weak document
// matches go there.
func WithLogger(logger *zap.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithTypoPolicy replaces DefaultTypoPolicy.
func WithTypoPolicy(policy TypoPolicy) ValidatorOption {
	return func(v *Validator) {
		v.policy = policy
	}
}

// NewValidator creates a Validator. A nil registry skips that lookup.
func NewValidator(names NameRegistry, surnames SurnameRegistry, opts ...ValidatorOption) *Validator {
	v := &Validator{
		names:    names,
		surnames: surnames,
		policy:   DefaultTypoPolicy(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy returns the typo policy applied to changes of existing patients.
func (v *Validator) Policy() TypoPolicy {
	return v.policy
}

// Validate checks every field in order: first name, last name, birth date,
// phone, document type, document id. The first failure aborts validation.
func (v *Validator) Validate(ctx context.Context, raw RawFields) (Fields, error) {
	var (
		f   Fields
		err error
	)
	if f.FirstName, err = v.FirstName(ctx, raw.FirstName); err != nil {
		return Fields{}, err
	}
	if f.LastName, err = v.LastName(ctx, raw.LastName); err != nil {
		return Fields{}, err
	}
	if f.BirthDate, err = v.BirthDate(raw.BirthDate); err != nil {
		return Fields{}, err
	}
	if f.Phone, err = v.Phone(raw.Phone); err != nil {
		return Fields{}, err
	}
	kind, err := v.DocumentKind(raw.DocumentType)
	if err != nil {
		return Fields{}, err
	}
	id, err := v.DocumentID(kind, raw.DocumentID)
	if err != nil {
		return Fields{}, err
	}
	f.Document = NewDocument(kind, id)
	return f, nil
}

// FirstName normalizes a first name and looks it up in the name registry.
func (v *Validator) FirstName(ctx context.Context, raw string) (string, error) {
	name, err := NormalizeName(raw)
	if err != nil {
		return "", v.reject(FieldFirstName, raw, err)
	}
	if err := v.lookUpFirstName(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// LastName normalizes a last name and looks it up in the surname registry.
func (v *Validator) LastName(ctx context.Context, raw string) (string, error) {
	name, err := NormalizeName(raw)
	if err != nil {
		return "", v.reject(FieldLastName, raw, err)
	}
	if err := v.lookUpLastName(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

// lookUpFirstName warns about a canonical name the registry does not know.
// Only a failing registry is an error.
func (v *Validator) lookUpFirstName(ctx context.Context, name string) error {
	if v.names == nil {
		return nil
	}
	found, err := v.names.NameExists(ctx, name)
	if err != nil {
		return fmt.Errorf("look up first name %q: %w", name, err)
	}
	if !found {
		v.logger.Warn("first name not found in registry", zap.String("first_name", name))
	}
	return nil
}

func (v *Validator) lookUpLastName(ctx context.Context, name string) error {
	if v.surnames == nil {
		return nil
	}
	found, err := v.surnames.SurnameExists(ctx, name)
	if err != nil {
		return fmt.Errorf("look up last name %q: %w", name, err)
	}
	if !found {
		v.logger.Warn("last name not found in registry", zap.String("last_name", name))
	}
	return nil
}

func (v *Validator) BirthDate(raw string) (string, error) {
	date, err := NormalizeBirthDate(raw)
	if err != nil {
		return "", v.reject(FieldBirthDate, raw, err)
	}
	return date, nil
}

func (v *Validator) Phone(raw any) (string, error) {
	phone, err := NormalizePhone(raw)
	if err != nil {
		return "", v.reject(FieldPhone, raw, err)
	}
	return phone, nil
}

// DocumentKind classifies a document description, logging weak matches.
func (v *Validator) DocumentKind(raw string) (DocumentKind, error) {
	kind, confidence, err := ClassifyDocumentKind(raw)
	if err != nil {
		return "", v.reject(FieldDocumentType, raw, err)
	}
	if confidence.IsLow() {
		v.logger.Warn("low confidence document type match",
			zap.String("input", raw),
			zap.String("kind", string(kind)),
			zap.Int("score", confidence.Score),
		)
	}
	return kind, nil
}

func (v *Validator) DocumentID(kind DocumentKind, raw string) (string, error) {
	id, err := NormalizeDocumentID(kind, raw)
	if err != nil {
		return "", v.reject(FieldDocumentID, raw, err)
	}
	return id, nil
}

// reject attaches the field to a domain error and logs it.
func (v *Validator) reject(field string, raw any, err error) error {
	err = withField(field, err)
	v.logger.Error("invalid field",
		zap.String("field", field),
		zap.Any("value", raw),
		zap.Error(err),
	)
	return err
}

func withField(field string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return shared.NewFieldError(de.Code, field, de.Message)
	}
	return err
}
