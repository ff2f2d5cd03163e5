package models

// AccountUser owns zero or more accounts. Immutable after creation as far
// as this service is concerned.
type AccountUser struct {
	Meta

	ID   int64
	Name string
}
