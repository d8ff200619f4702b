package shared

import (
	"time"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() string
	GetCreatedAt() time.Time
}

// BaseEntity provides common fields for all entities.
// ID is empty until the repository assigns one on create.
type BaseEntity struct {
	ID        string
	CreatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() string {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// IsPersisted reports whether the repository has assigned an ID
func (e *BaseEntity) IsPersisted() bool {
	return e.ID != ""
}

// NewBaseEntity creates a new unpersisted base entity stamped with now (UTC,
// second precision, matching the stored ISO-8601 form).
func NewBaseEntity(now time.Time) BaseEntity {
	return BaseEntity{
		CreatedAt: now.UTC().Truncate(time.Second),
	}
}
