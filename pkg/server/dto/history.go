package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/soundprediction/chronograph/pkg/types"
)

// AppendVersionRequest is the body for POST /versions.
type AppendVersionRequest struct {
	Entity      *types.Entity `json:"entity" binding:"required"`
	ChangeSetID string        `json:"change_set_id,omitempty"`
	Timestamp   *time.Time    `json:"timestamp,omitempty"`
}

// Validate performs validation on AppendVersionRequest
func (r *AppendVersionRequest) Validate() error {
	if r.Entity == nil {
		return errors.New("entity is required")
	}
	if strings.TrimSpace(r.Entity.ID) == "" {
		return errors.New("entity.id cannot be empty")
	}
	if strings.TrimSpace(r.Entity.Type) == "" {
		return errors.New("entity.type cannot be empty")
	}
	return nil
}

// Options converts the request into append options.
func (r *AppendVersionRequest) Options() *types.AppendOptions {
	opts := &types.AppendOptions{ChangeSetID: r.ChangeSetID}
	if r.Timestamp != nil {
		opts.Timestamp = *r.Timestamp
	}
	return opts
}

// AppendVersionResponse reports the id of the recorded version.
type AppendVersionResponse struct {
	VersionID string `json:"version_id"`
}

// EdgeRequest is the body for POST /edges/open and POST /edges/close.
type EdgeRequest struct {
	FromID      string     `json:"from_id" binding:"required"`
	ToID        string     `json:"to_id" binding:"required"`
	EdgeType    string     `json:"edge_type" binding:"required"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	ChangeSetID string     `json:"change_set_id,omitempty"`
}

// Validate performs validation on EdgeRequest
func (r *EdgeRequest) Validate() error {
	if strings.TrimSpace(r.FromID) == "" {
		return errors.New("from_id cannot be empty")
	}
	if strings.TrimSpace(r.ToID) == "" {
		return errors.New("to_id cannot be empty")
	}
	if strings.TrimSpace(r.EdgeType) == "" {
		return errors.New("edge_type cannot be empty")
	}
	return nil
}

// Time returns the request timestamp, defaulting to now.
func (r *EdgeRequest) Time() time.Time {
	if r.Timestamp != nil {
		return *r.Timestamp
	}
	return time.Now().UTC()
}

// TraversalRequest is the body for POST /traverse.
type TraversalRequest struct {
	StartID string                  `json:"start_id" binding:"required"`
	Options *types.TraversalOptions `json:"options,omitempty"`
}

// CreateCheckpointRequest is the body for POST /checkpoints.
type CreateCheckpointRequest struct {
	SeedEntities []string               `json:"seed_entities" binding:"required"`
	Reason       string                 `json:"reason" binding:"required"`
	Hops         int                    `json:"hops,omitempty"`
	Window       *types.TimeRange       `json:"window,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Options converts the request into checkpoint creation options.
func (r *CreateCheckpointRequest) Options() *types.CreateCheckpointOptions {
	return &types.CreateCheckpointOptions{
		Reason:   r.Reason,
		Hops:     r.Hops,
		Window:   r.Window,
		Metadata: r.Metadata,
	}
}

// ImportCheckpointRequest is the body for POST /checkpoints/import.
type ImportCheckpointRequest struct {
	Export        *types.CheckpointExport `json:"export" binding:"required"`
	UseOriginalID bool                    `json:"use_original_id,omitempty"`
}

// ImportCheckpointResponse reports the id of the imported checkpoint.
type ImportCheckpointResponse struct {
	CheckpointID string `json:"checkpoint_id"`
}

// PruneRequest is the body for POST /prune.
type PruneRequest struct {
	RetentionDays int  `json:"retention_days,omitempty"`
	DryRun        bool `json:"dry_run,omitempty"`
}
