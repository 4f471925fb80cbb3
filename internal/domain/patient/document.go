package patient

import (
	"fmt"
	"strings"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// DocumentKind represents the type of identity document
type DocumentKind string

const (
	DocumentKindDomesticPassport DocumentKind = "domestic_passport"
	DocumentKindForeignPassport  DocumentKind = "foreign_passport"
	DocumentKindDriverLicense    DocumentKind = "driver_license"
)

var documentKindLabels = map[DocumentKind]string{
	DocumentKindDomesticPassport: "Паспорт РФ",
	DocumentKindForeignPassport:  "Загран. паспорт",
	DocumentKindDriverLicense:    "Водительские права",
}

// IsValid reports whether k is one of the known document kinds
func (k DocumentKind) IsValid() bool {
	_, ok := documentKindLabels[k]
	return ok
}

// Label returns the human-readable label used in rendering and storage
func (k DocumentKind) Label() string {
	return documentKindLabels[k]
}

// ParseDocumentKindLabel is the inverse of Label.
func ParseDocumentKindLabel(label string) (DocumentKind, error) {
	for kind, l := range documentKindLabels {
		if l == label {
			return kind, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeInvalidDocumentType,
		fmt.Sprintf("unknown document type label %q", label))
}

// digit count and group sizes of a document id per kind
var documentIDGroups = map[DocumentKind][]int{
	DocumentKindForeignPassport:  {2, 7},
	DocumentKindDomesticPassport: {2, 2, 6},
	DocumentKindDriverLicense:    {2, 2, 6},
}

// NormalizeDocumentID strips every non-digit from raw and groups the digits
// the way ids of the given kind are written: "78 1581258" for a foreign
// passport, "48 14 326902" for a domestic passport or a driver's license.
func NormalizeDocumentID(kind DocumentKind, raw string) (string, error) {
	groups, ok := documentIDGroups[kind]
	if !ok {
		return "", shared.NewDomainError(shared.CodeInvalidDocumentType,
			fmt.Sprintf("unknown document kind %q", kind))
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	want := 0
	for _, g := range groups {
		want += g
	}
	if len(digits) != want {
		return "", shared.NewDomainError(shared.CodeInvalidDocumentID,
			fmt.Sprintf("%s number must contain %d digits, got %d", kind.Label(), want, len(digits)))
	}

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, digits[:g])
		digits = digits[g:]
	}
	return strings.Join(parts, " "), nil
}

// pendingIDLabel is rendered in place of an id that has not been assigned yet.
const pendingIDLabel = "не указан"

// Document is an identity document: its kind and grouped id.
// The id is pending right after the kind changes, until a new id is assigned.
type Document struct {
	kind DocumentKind
	id   string
}

// NewDocument creates a document with an assigned id.
func NewDocument(kind DocumentKind, id string) Document {
	return Document{kind: kind, id: id}
}

// PendingDocument creates a document whose id is not assigned yet.
func PendingDocument(kind DocumentKind) Document {
	return Document{kind: kind}
}

func (d Document) Kind() DocumentKind { return d.kind }
func (d Document) ID() string         { return d.id }
func (d Document) IsPending() bool    { return d.id == "" }

func (d Document) String() string {
	id := d.id
	if d.IsPending() {
		id = pendingIDLabel
	}
	return d.kind.Label() + ": " + id
}
