package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// width of the quoted name column in String
const nameColumnWidth = 23

// Patient is a validated patient record.
//
// Fields other than the status and the phone change only through the guarded
// Change methods, which accept a new value only when it looks like a typo fix.
type Patient struct {
	firstName string
	lastName  string
	birthDate string
	phone     string
	document  Document
	status    Status
}

// New validates raw input and creates an infected patient.
func New(ctx context.Context, v *Validator, raw RawFields) (*Patient, error) {
	f, err := v.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	return &Patient{
		firstName: f.FirstName,
		lastName:  f.LastName,
		birthDate: f.BirthDate,
		phone:     f.Phone,
		document:  f.Document,
		status:    StatusInfected,
	}, nil
}

// StoredFields is the storage row of a patient: canonical strings and labels.
// An empty DocumentID means the id is pending.
type StoredFields struct {
	FirstName    string
	LastName     string
	BirthDate    string
	Phone        string
	DocumentType string
	DocumentID   string
	Status       string
}

// Restore rebuilds a patient from a storage row without lookups or typo checks.
// Every field must already be in canonical form.
func Restore(s StoredFields) (*Patient, error) {
	if s.FirstName == "" {
		return nil, shared.NewFieldError(shared.CodeInvalidFormat, FieldFirstName, "stored first name is empty")
	}
	if s.LastName == "" {
		return nil, shared.NewFieldError(shared.CodeInvalidFormat, FieldLastName, "stored last name is empty")
	}
	if _, err := time.Parse(DateLayout, s.BirthDate); err != nil {
		return nil, shared.NewFieldError(shared.CodeInvalidFormat, FieldBirthDate,
			fmt.Sprintf("stored birth date %q is not canonical", s.BirthDate))
	}
	if phone, err := NormalizePhone(s.Phone); err != nil || phone != s.Phone {
		return nil, shared.NewFieldError(shared.CodeInvalidFormat, FieldPhone,
			fmt.Sprintf("stored phone %q is not canonical", s.Phone))
	}

	kind, err := ParseDocumentKindLabel(s.DocumentType)
	if err != nil {
		return nil, withField(FieldDocumentType, err)
	}
	doc := PendingDocument(kind)
	if s.DocumentID != "" {
		if id, err := NormalizeDocumentID(kind, s.DocumentID); err != nil || id != s.DocumentID {
			return nil, shared.NewFieldError(shared.CodeInvalidDocumentID, FieldDocumentID,
				fmt.Sprintf("stored document id %q is not canonical", s.DocumentID))
		}
		doc = NewDocument(kind, s.DocumentID)
	}

	status, err := ParseStatusLabel(s.Status)
	if err != nil {
		return nil, withField(FieldStatus, err)
	}

	return &Patient{
		firstName: s.FirstName,
		lastName:  s.LastName,
		birthDate: s.BirthDate,
		phone:     s.Phone,
		document:  doc,
		status:    status,
	}, nil
}

// ToStored returns the storage row of the patient.
func (p *Patient) ToStored() StoredFields {
	return StoredFields{
		FirstName:    p.firstName,
		LastName:     p.lastName,
		BirthDate:    p.birthDate,
		Phone:        p.phone,
		DocumentType: p.document.Kind().Label(),
		DocumentID:   p.document.ID(),
		Status:       p.status.Label(),
	}
}

func (p *Patient) FirstName() string  { return p.firstName }
func (p *Patient) LastName() string   { return p.lastName }
func (p *Patient) BirthDate() string  { return p.birthDate }
func (p *Patient) Phone() string      { return p.phone }
func (p *Patient) Document() Document { return p.document }
func (p *Patient) Status() Status     { return p.status }

// ChangeFirstName replaces the first name if the new one is a typo fix. The
// registry lookup runs on the value stored, which for a name typed in the
// Latin layout is its Cyrillic reading.
func (p *Patient) ChangeFirstName(ctx context.Context, v *Validator, raw string) error {
	name, err := NormalizeName(raw)
	if err != nil {
		return v.reject(FieldFirstName, raw, err)
	}
	accepted, ok := v.Policy().AllowNameChange(p.firstName, name)
	if !ok {
		return typoNotRecognized(FieldFirstName, p.firstName, name)
	}
	if err := v.lookUpFirstName(ctx, accepted); err != nil {
		return err
	}
	p.firstName = accepted
	return nil
}

// ChangeLastName replaces the last name if the new one is a typo fix.
func (p *Patient) ChangeLastName(ctx context.Context, v *Validator, raw string) error {
	name, err := NormalizeName(raw)
	if err != nil {
		return v.reject(FieldLastName, raw, err)
	}
	accepted, ok := v.Policy().AllowNameChange(p.lastName, name)
	if !ok {
		return typoNotRecognized(FieldLastName, p.lastName, name)
	}
	if err := v.lookUpLastName(ctx, accepted); err != nil {
		return err
	}
	p.lastName = accepted
	return nil
}

// ChangeBirthDate replaces the birth date; whether it must look like a typo
// fix depends on TypoPolicy.GuardBirthDate.
func (p *Patient) ChangeBirthDate(v *Validator, raw string) error {
	date, err := v.BirthDate(raw)
	if err != nil {
		return err
	}
	if !v.Policy().AllowBirthDateChange(p.birthDate, date) {
		return typoNotRecognized(FieldBirthDate, p.birthDate, date)
	}
	p.birthDate = date
	return nil
}

// ChangePhone replaces the phone with any valid number.
func (p *Patient) ChangePhone(v *Validator, raw any) error {
	phone, err := v.Phone(raw)
	if err != nil {
		return err
	}
	p.phone = phone
	return nil
}

// ChangeDocumentKind switches to another document kind. The id becomes
// pending until ChangeDocumentID assigns a new one.
func (p *Patient) ChangeDocumentKind(v *Validator, raw string) error {
	kind, err := v.DocumentKind(raw)
	if err != nil {
		return err
	}
	if !v.Policy().AllowDocumentKindChange(p.document.Kind(), kind) {
		return shared.NewFieldError(shared.CodeTypoNotRecognized, FieldDocumentType,
			fmt.Sprintf("document type is already %s", kind.Label()))
	}
	p.document = PendingDocument(kind)
	return nil
}

// ChangeDocumentID assigns the id of a pending document or corrects a typo
// in the current one.
func (p *Patient) ChangeDocumentID(v *Validator, raw string) error {
	id, err := v.DocumentID(p.document.Kind(), raw)
	if err != nil {
		return err
	}
	if !v.Policy().AllowDocumentIDChange(p.document, id) {
		return typoNotRecognized(FieldDocumentID, p.document.ID(), id)
	}
	p.document = NewDocument(p.document.Kind(), id)
	return nil
}

func (p *Patient) MarkRecovered() { p.status = StatusRecovered }
func (p *Patient) MarkDeceased()  { p.status = StatusDeceased }

// String renders the patient on a single line:
//
//	['Иван Иванов',         1978-01-31, +7(949)505-22-56, Паспорт РФ: 48 14 326902, Статус: Болен]
func (p *Patient) String() string {
	name := fmt.Sprintf("'%s %s',", p.firstName, p.lastName)
	return fmt.Sprintf("[%-*s%s, %s, %s, Статус: %s]",
		nameColumnWidth, name, p.birthDate, p.phone, p.document, p.status.Label())
}

// Equal compares two patients by their rendering.
func (p *Patient) Equal(other *Patient) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.String() == other.String()
}

func typoNotRecognized(field, oldValue, newValue string) error {
	return shared.NewFieldError(shared.CodeTypoNotRecognized, field,
		fmt.Sprintf("%q does not look like a correction of %q", newValue, oldValue))
}
