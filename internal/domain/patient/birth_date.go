package patient

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/covidtrack/registry/internal/domain/shared"
)

// DateLayout is the canonical birth date format.
const DateLayout = "2006-01-02"

var errInvalidDate = shared.NewDomainError(shared.CodeInvalidFormat, "invalid birth date")

// NormalizeBirthDate parses a numeric date and returns it as YYYY-MM-DD.
//
// Accepted shapes are YYYY-MM-DD and DD-MM-YYYY with any run of '.', '/', '-'
// or spaces between the parts, and a bare YYYYMMDD block.
func NormalizeBirthDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errInvalidDate
	}

	for _, r := range s {
		if unicode.IsLetter(r) {
			return "", shared.NewDomainError(shared.CodeInvalidFormat, "birth date must not contain letters")
		}
		if (r < '0' || r > '9') && !isDateSeparator(r) {
			return "", errInvalidDate
		}
	}

	parts := strings.FieldsFunc(s, isDateSeparator)
	var year, month, day string
	switch {
	case len(parts) == 1 && len(parts[0]) == 8:
		year, month, day = parts[0][:4], parts[0][4:6], parts[0][6:]
	case len(parts) == 3 && len(parts[0]) == 4:
		year, month, day = parts[0], parts[1], parts[2]
	case len(parts) == 3 && len(parts[2]) == 4:
		day, month, year = parts[0], parts[1], parts[2]
	default:
		return "", errInvalidDate
	}
	if len(month) > 2 || len(day) > 2 {
		return "", errInvalidDate
	}

	t, err := buildDate(year, month, day)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

func isDateSeparator(r rune) bool {
	switch r {
	case '.', '/', '-', ' ':
		return true
	}
	return false
}

func buildDate(year, month, day string) (time.Time, error) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, errInvalidDate
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2), so compare back
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}
