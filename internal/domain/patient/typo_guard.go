package patient

// TypoPolicy decides whether a validated new value may replace the current
// one. A field changes only when the new value looks like a correction of a
// typo in the old one; thresholds are PartialRatio scores that must be exceeded.
type TypoPolicy struct {
	NameThreshold       int
	DocumentIDThreshold int
	BirthDateThreshold  int
	// GuardBirthDate enables the similarity check for birth dates.
	// When off, any valid birth date is accepted.
	GuardBirthDate bool
}

// DefaultTypoPolicy returns the standard thresholds with the birth date unguarded.
func DefaultTypoPolicy() TypoPolicy {
	return TypoPolicy{
		NameThreshold:       59,
		DocumentIDThreshold: 79,
		BirthDateThreshold:  81,
		GuardBirthDate:      false,
	}
}

// AllowNameChange checks a canonical new first or last name against the old
// one. When the two share nothing at all, the new name is re-read in the
// Cyrillic keyboard layout and checked once more. It returns the value to store.
func (p TypoPolicy) AllowNameChange(oldName, newName string) (string, bool) {
	score := PartialRatio(oldName, newName)
	if score > p.NameThreshold {
		return newName, true
	}
	if score != 0 {
		return "", false
	}

	retyped, err := NormalizeName(FromLatinLayout(newName))
	if err != nil {
		return "", false
	}
	if PartialRatio(oldName, retyped) > p.NameThreshold {
		return retyped, true
	}
	return "", false
}

// AllowBirthDateChange checks canonical birth dates.
func (p TypoPolicy) AllowBirthDateChange(oldDate, newDate string) bool {
	if !p.GuardBirthDate {
		return true
	}
	return PartialRatio(oldDate, newDate) > p.BirthDateThreshold
}

// AllowDocumentKindChange accepts only a real change of kind.
func (p TypoPolicy) AllowDocumentKindChange(oldKind, newKind DocumentKind) bool {
	return oldKind != newKind
}

// AllowDocumentIDChange accepts any id for a pending document, otherwise only
// an id close enough to the current one.
func (p TypoPolicy) AllowDocumentIDChange(current Document, newID string) bool {
	if current.IsPending() {
		return true
	}
	return PartialRatio(current.ID(), newID) > p.DocumentIDThreshold
}
