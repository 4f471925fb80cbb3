package patient

import "context"

// NameRegistry answers whether a first name is known to an external registry.
// A false answer is advisory. A returned error means the lookup itself failed.
type NameRegistry interface {
	NameExists(ctx context.Context, name string) (bool, error)
}

// SurnameRegistry is the NameRegistry counterpart for last names.
type SurnameRegistry interface {
	SurnameExists(ctx context.Context, surname string) (bool, error)
}
