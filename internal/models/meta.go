package models

import "time"

// Meta holds the audit timestamps every persisted record carries.
// It is embedded by value in each entity.
type Meta struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}
