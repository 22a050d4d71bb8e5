package types

import "time"

// Checkpoint is a named, immutable snapshot of a subgraph. The membership set
// is materialized as one INCLUDES edge from the checkpoint to each member
// entity; membership never changes after creation.
type Checkpoint struct {
	ID           string                 `json:"id" mapstructure:"id"`
	Timestamp    time.Time              `json:"timestamp" mapstructure:"timestamp"`
	Reason       string                 `json:"reason" mapstructure:"reason"`
	SeedEntities []string               `json:"seed_entities" mapstructure:"seed_entities"`
	Imported     bool                   `json:"imported,omitempty" mapstructure:"imported"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" mapstructure:"metadata"`
	MemberCount  int                    `json:"member_count" mapstructure:"member_count"`
}

// CreateCheckpointOptions configures the membership expansion of a new
// checkpoint.
type CreateCheckpointOptions struct {
	// Reason is a human-readable label for the snapshot. Required.
	Reason string `json:"reason"`
	// Hops bounds the breadth-first expansion from the seeds. Zero means the
	// default of 2.
	Hops int `json:"hops,omitempty"`
	// Window, when set, restricts expansion to edges whose validity interval
	// intersects the window. Nil expands over the live graph.
	Window *TimeRange `json:"window,omitempty"`
	// Metadata is attached to the checkpoint record verbatim.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// CreateCheckpointResult reports the outcome of a checkpoint creation.
type CreateCheckpointResult struct {
	CheckpointID string `json:"checkpoint_id"`
	// MemberCount is the total membership set size, seeds included.
	MemberCount int `json:"member_count"`
}

// ListCheckpointsOptions filters and paginates a checkpoint listing.
type ListCheckpointsOptions struct {
	Reason string     `json:"reason,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Until  *time.Time `json:"until,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// CheckpointPage is one page of a checkpoint listing. Total is the full
// filtered count prior to pagination, not the page length.
type CheckpointPage struct {
	Items []*Checkpoint `json:"items"`
	Total int           `json:"total"`
}

// CheckpointStats aggregates the composition of a checkpoint's membership:
// per-entity-type counts and per-relationship-type counts among edges
// strictly between member entities.
type CheckpointStats struct {
	EntityTypes       map[string]int `json:"entity_types"`
	RelationshipTypes map[string]int `json:"relationship_types"`
}

// CheckpointSummary bundles a checkpoint with its members and stats.
type CheckpointSummary struct {
	Checkpoint *Checkpoint      `json:"checkpoint"`
	Members    []*Entity        `json:"members"`
	Stats      *CheckpointStats `json:"stats"`
}

// CheckpointExport is the closed subgraph of a checkpoint: the full
// membership plus every edge whose endpoints are both members.
type CheckpointExport struct {
	Checkpoint    *Checkpoint     `json:"checkpoint"`
	Entities      []*Entity       `json:"entities"`
	Relationships []*TemporalEdge `json:"relationships"`
}

// ImportOptions configures a checkpoint import.
type ImportOptions struct {
	// UseOriginalID reuses the exported checkpoint id instead of minting a
	// new one. Repeated identical imports merge rather than duplicate.
	UseOriginalID bool `json:"use_original_id,omitempty"`
}
