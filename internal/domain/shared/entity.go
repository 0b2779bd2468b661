package shared

import (
	"time"
)

// Entity is the base interface for all domain entities.
// Records are keyed by their ERP document name (e.g. "SO-05123", "SL-000812").
type Entity interface {
	GetName() string
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetName returns the entity name
func (e *BaseEntity) GetName() string {
	return e.Name
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch bumps the modification timestamp
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with the given name
func NewBaseEntity(name string) BaseEntity {
	now := time.Now()
	return BaseEntity{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
