// Package models contains the GORM persistence models. The domain types carry
// no ORM tags; a model is built with PatientModelFromDomain and read back
// with ToDomain.
package models
