package csvimport

import (
	"fmt"
	"unicode/utf8"
)

// FieldRule defines shape rules checked on a raw cell before domain validation
type FieldRule struct {
	Column    string
	Required  bool
	MaxLength int
	Unique    bool
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// MaxLength caps the length of the value in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Unique rejects a value already seen in an earlier row
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Build returns the built rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator validates rows according to rules
type FieldValidator struct {
	rules  []FieldRule
	seen   map[string]map[string]int // column -> value -> first row number
	errors *ErrorCollection
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateRow checks every rule against the row and reports whether it passed.
// Rules are checked in the order they were given.
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				v.errors.AddRequiredError(row.LineNumber, rule.Column)
				ok = false
			}
			continue
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.Add(RowError{
				Row:     row.LineNumber,
				Column:  rule.Column,
				Code:    ErrCodeImportInvalidLength,
				Message: fmt.Sprintf("length must be at most %d", rule.MaxLength),
				Value:   value,
			})
			ok = false
		}

		if rule.Unique {
			if v.seen[rule.Column] == nil {
				v.seen[rule.Column] = make(map[string]int)
			}
			if first, dup := v.seen[rule.Column][value]; dup {
				v.errors.Add(RowError{
					Row:     row.LineNumber,
					Column:  rule.Column,
					Code:    ErrCodeImportDuplicateInFile,
					Message: fmt.Sprintf("duplicate value '%s' (first seen in row %d)", value, first),
					Value:   value,
				})
				ok = false
			} else {
				v.seen[rule.Column][value] = row.LineNumber
			}
		}
	}
	return ok
}

// Errors returns the errors collected so far
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}
