package types

import (
	"fmt"
	"time"
)

// EdgeIdentity is the logical identity of a temporal relationship. At most
// one edge instance per identity may be open (ValidTo unset) at any time.
type EdgeIdentity struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Type   string `json:"type"`
}

// String returns a stable key for the identity, usable for per-identity
// serialization of close-then-open transitions.
func (id EdgeIdentity) String() string {
	return fmt.Sprintf("%s|%s|%s", id.FromID, id.ToID, id.Type)
}

// Validate checks that all identity components are present.
func (id EdgeIdentity) Validate() error {
	if id.FromID == "" || id.ToID == "" {
		return ErrEmptyID
	}
	if id.Type == "" {
		return ErrEmptyType
	}
	return nil
}

// TemporalEdge is a relationship instance with a validity interval
// [ValidFrom, ValidTo). An edge with ValidTo unset is open; once ValidTo is
// set the edge is closed and immutable thereafter.
type TemporalEdge struct {
	ID          string                 `json:"id" mapstructure:"id"`
	Type        string                 `json:"type" mapstructure:"type"`
	FromID      string                 `json:"from_id" mapstructure:"from_id"`
	ToID        string                 `json:"to_id" mapstructure:"to_id"`
	ValidFrom   time.Time              `json:"valid_from" mapstructure:"valid_from"`
	ValidTo     *time.Time             `json:"valid_to,omitempty" mapstructure:"valid_to"`
	ChangeSetID string                 `json:"change_set_id,omitempty" mapstructure:"change_set_id"`
	Properties  map[string]interface{} `json:"properties,omitempty" mapstructure:"properties"`
}

// Identity returns the logical identity of the edge.
func (e *TemporalEdge) Identity() EdgeIdentity {
	return EdgeIdentity{FromID: e.FromID, ToID: e.ToID, Type: e.Type}
}

// IsOpen reports whether the edge's validity interval is still open.
func (e *TemporalEdge) IsOpen() bool {
	return e.ValidTo == nil
}

// ValidAt reports whether the edge's validity interval contains t. The
// interval is half-open: t == ValidFrom is inside, t == ValidTo is not. A
// zero ValidFrom is treated as the beginning of time, a nil ValidTo as the
// end.
func (e *TemporalEdge) ValidAt(t time.Time) bool {
	if !e.ValidFrom.IsZero() && e.ValidFrom.After(t) {
		return false
	}
	if e.ValidTo != nil && !e.ValidTo.After(t) {
		return false
	}
	return true
}

// Validate checks interval consistency and identity completeness.
func (e *TemporalEdge) Validate() error {
	if err := e.Identity().Validate(); err != nil {
		return err
	}
	if e.ValidTo != nil && e.ValidTo.Before(e.ValidFrom) {
		return ErrInvalidInterval
	}
	return nil
}

// TraversalOptions bounds a time-travel traversal.
type TraversalOptions struct {
	// Until is the instant the traversal is evaluated at. Zero means now.
	Until time.Time `json:"until,omitempty"`
	// MaxDepth bounds the path expansion. Zero means the default of 3.
	MaxDepth int `json:"max_depth,omitempty"`
	// RelationshipTypes restricts which edge types are expanded.
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	// NodeLabels restricts which entity types surviving paths may visit.
	NodeLabels []string `json:"node_labels,omitempty"`
}

// Subgraph is the result of a traversal or a checkpoint export: the
// de-duplicated node set plus the edges along the surviving paths.
type Subgraph struct {
	Nodes []*Entity       `json:"nodes"`
	Edges []*TemporalEdge `json:"edges"`
}
