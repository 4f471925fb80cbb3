package shared

// Filter represents query paging options.
// Results are always returned in insertion order.
type Filter struct {
	Offset int
	Limit  int
}

// Unbounded returns a filter that selects every row
func Unbounded() Filter {
	return Filter{}
}

// IsUnbounded reports whether the filter selects every row
func (f Filter) IsUnbounded() bool {
	return f.Limit <= 0
}
