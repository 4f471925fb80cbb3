package patient

import (
	"fmt"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// Status represents the course of the disease for a patient
type Status string

const (
	StatusInfected  Status = "infected"
	StatusRecovered Status = "recovered"
	StatusDeceased  Status = "deceased"
)

// Statuses lists every status in rendering order.
var Statuses = []Status{StatusInfected, StatusRecovered, StatusDeceased}

var statusLabels = map[Status]string{
	StatusInfected:  "Болен",
	StatusRecovered: "Выздоровел",
	StatusDeceased:  "Умер",
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable status label
func (s Status) Label() string {
	return statusLabels[s]
}

// ParseStatusLabel is the inverse of Label.
func ParseStatusLabel(label string) (Status, error) {
	for status, l := range statusLabels {
		if l == label {
			return status, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeInvalidStatus, fmt.Sprintf("unknown status %q", label))
}
