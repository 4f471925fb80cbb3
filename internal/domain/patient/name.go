package patient

import (
	"strings"
	"unicode"

	"github.com/covidtrack/registry/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName validates a first or last name and returns it capitalized:
// first letter upper case, the rest lower case. Every character must be a letter.
func NormalizeName(raw string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if name == "" {
		return "", shared.NewDomainError(shared.CodeInvalidFormat, "name cannot be empty")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return "", shared.NewDomainError(shared.CodeInvalidFormat, "name must contain letters only")
		}
	}
	return cases.Title(language.Russian).String(name), nil
}
