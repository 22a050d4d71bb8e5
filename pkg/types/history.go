package types

import "time"

// PruneOptions configures a retention sweep.
type PruneOptions struct {
	// DryRun selects the same rows but issues read-only counts instead of
	// deletes. A dry run never mutates the graph.
	DryRun bool `json:"dry_run,omitempty"`
}

// PruneResult reports (or previews, under dry-run) the effect of a retention
// sweep.
type PruneResult struct {
	VersionsDeleted    int       `json:"versions_deleted"`
	EdgesClosed        int       `json:"edges_closed"`
	CheckpointsDeleted int       `json:"checkpoints_deleted"`
	DryRun             bool      `json:"dry_run"`
	Cutoff             time.Time `json:"cutoff"`
}

// MemberDistribution summarizes the per-checkpoint membership-count
// distribution. Zero-member checkpoints count as 0, not excluded.
type MemberDistribution struct {
	Avg float64 `json:"avg"`
	Min int     `json:"min"`
	Max int     `json:"max"`
}

// EdgeCounts splits temporal edges by lifecycle state.
type EdgeCounts struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// HistoryMetrics aggregates counts across the temporal stores.
type HistoryMetrics struct {
	Versions          int                `json:"versions"`
	Checkpoints       int                `json:"checkpoints"`
	CheckpointMembers MemberDistribution `json:"checkpoint_members"`
	TemporalEdges     EdgeCounts         `json:"temporal_edges"`
}

// TimelineEntry is one fact on an entity, relationship, or session timeline.
type TimelineEntry struct {
	// Kind is "version" or "edge".
	Kind        string        `json:"kind"`
	Timestamp   time.Time     `json:"timestamp"`
	EntityID    string        `json:"entity_id,omitempty"`
	ChangeSetID string        `json:"change_set_id,omitempty"`
	Version     *Version      `json:"version,omitempty"`
	Edge        *TemporalEdge `json:"edge,omitempty"`
}

// TimelineOptions bounds a timeline query.
type TimelineOptions struct {
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

// Timespan is the earliest and latest timestamp touched by a session.
type Timespan struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// SessionImpacts summarizes everything one change-set touched. Timespan is
// nil when the session produced no timestamped fact.
type SessionImpacts struct {
	ChangeSetID      string    `json:"change_set_id"`
	VersionCount     int       `json:"version_count"`
	EdgeCount        int       `json:"edge_count"`
	EntitiesAffected []string  `json:"entities_affected"`
	Timespan         *Timespan `json:"timespan,omitempty"`
}

// SessionChanges is the raw fact set produced by one change-set.
type SessionChanges struct {
	ChangeSetID string          `json:"change_set_id"`
	Versions    []*Version      `json:"versions"`
	Edges       []*TemporalEdge `json:"edges"`
}
