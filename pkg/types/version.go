package types

import "time"

// Version is an immutable fact recording an entity's content at a point in
// time. Versions are created exactly once per append and never mutated;
// pruning is the only path that removes them, and a version whose entity is a
// member of a surviving checkpoint is pinned against pruning.
type Version struct {
	ID          string    `json:"id" mapstructure:"id"`
	EntityID    string    `json:"entity_id" mapstructure:"entity_id"`
	Hash        string    `json:"hash" mapstructure:"hash"`
	Timestamp   time.Time `json:"timestamp" mapstructure:"timestamp"`
	ChangeSetID string    `json:"change_set_id,omitempty" mapstructure:"change_set_id"`
	Path        string    `json:"path,omitempty" mapstructure:"path"`
	Language    string    `json:"language,omitempty" mapstructure:"language"`
}

// Validate checks if the Version has all required fields set.
func (v *Version) Validate() error {
	if v.ID == "" {
		return ErrEmptyID
	}
	if v.EntityID == "" {
		return ErrEmptyID
	}
	return nil
}

// AppendOptions carries the optional parameters of a version append.
type AppendOptions struct {
	// ChangeSetID correlates this version with other facts produced by the
	// same logical operation. Analytics only, never authorization.
	ChangeSetID string `json:"change_set_id,omitempty"`
	// Timestamp overrides the version timestamp. Zero means now.
	Timestamp time.Time `json:"timestamp,omitempty"`
}
