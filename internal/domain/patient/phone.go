package patient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/covidtrack/registry/internal/domain/shared"
)

const (
	minPhoneNumber = 10_000_000_000
	maxPhoneNumber = 99_999_999_999
	phoneDigits    = 11
)

// NormalizePhone accepts a phone number as a string or an 11-digit integer and
// returns it as +7(XXX)XXX-XX-XX. Every non-digit character of a string is dropped.
func NormalizePhone(raw any) (string, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case int:
		return phoneFromInt(int64(v))
	case int64:
		return phoneFromInt(v)
	case uint64:
		if v > maxPhoneNumber {
			return "", phoneTypeMismatch(raw)
		}
		return phoneFromInt(int64(v))
	default:
		return "", phoneTypeMismatch(raw)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) != phoneDigits {
		return "", shared.NewDomainError(shared.CodeInvalidLength,
			fmt.Sprintf("phone must contain %d digits, got %d", phoneDigits, len(digits)))
	}
	return fmt.Sprintf("+7(%s)%s-%s-%s", digits[1:4], digits[4:7], digits[7:9], digits[9:11]), nil
}

func phoneFromInt(n int64) (string, error) {
	if n < minPhoneNumber || n > maxPhoneNumber {
		return "", phoneTypeMismatch(n)
	}
	return NormalizePhone(strconv.FormatInt(n, 10))
}

func phoneTypeMismatch(raw any) error {
	return shared.NewDomainError(shared.CodeTypeMismatch,
		fmt.Sprintf("phone must be a string or an 11-digit number, got %T", raw))
}
