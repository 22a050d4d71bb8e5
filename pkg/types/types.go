package types

import (
	"errors"
	"time"
)

// Validation errors
var (
	ErrEmptyID         = errors.New("id cannot be empty")
	ErrEmptyType       = errors.New("type cannot be empty")
	ErrEmptyReason     = errors.New("reason cannot be empty")
	ErrEmptySeeds      = errors.New("seed entities cannot be empty")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrNegativeDays    = errors.New("retention days cannot be negative")
	ErrInvalidInterval = errors.New("valid_to cannot precede valid_from")
)

// EntityKind discriminates entity categories carried by the history engine.
// The kind is resolved once when the entity enters the graph and stored as an
// explicit property, never re-derived from the shape of the property bag.
type EntityKind string

const (
	// EntityKindGeneric is the default for entities with no declared kind.
	EntityKindGeneric EntityKind = "generic"
	// EntityKindDocument marks file or document-backed entities.
	EntityKindDocument EntityKind = "document"
	// EntityKindConcept marks abstract concept entities.
	EntityKindConcept EntityKind = "concept"
	// EntityKindImported marks entities materialized by a checkpoint import.
	EntityKindImported EntityKind = "imported"
)

// Entity represents a graph node as seen by the history engine. Entities are
// owned by collaborating services; chronograph only reads their identity,
// kind, and property bag, and never deletes them.
type Entity struct {
	ID         string                 `json:"id" mapstructure:"id"`
	Type       string                 `json:"type" mapstructure:"type"`
	Kind       EntityKind             `json:"kind,omitempty" mapstructure:"kind"`
	Properties map[string]interface{} `json:"properties,omitempty" mapstructure:"properties"`
}

// Validate checks if the Entity has all required fields set.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Type == "" {
		return ErrEmptyType
	}
	return nil
}

// TimeRange represents an optional time window used to filter temporal
// queries. A nil Since means the beginning of time, a nil Until the end.
type TimeRange struct {
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
}

// Contains reports whether t falls inside the range.
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if r.Since != nil && t.Before(*r.Since) {
		return false
	}
	if r.Until != nil && t.After(*r.Until) {
		return false
	}
	return true
}
